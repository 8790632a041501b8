package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	teamCount       int
	strategy        string
	expectedBatch   string
	seed            int64
	dryRun          bool
	format          string
	competitionType string
)

var errEventRequired = errors.New("--event is required")

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(rosterCmd)
	rootCmd.AddCommand(teamsCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(resultCmd)
	rootCmd.AddCommand(standingsCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(historyCmd)

	teamsCmd.AddCommand(teamsGenerateCmd, teamsListCmd)
	teamsGenerateCmd.Flags().IntVarP(&teamCount, "teams", "n", 2, "Number of teams")
	teamsGenerateCmd.Flags().StringVarP(&strategy, "strategy", "s", "random", "random or skill-balanced")
	teamsGenerateCmd.Flags().StringVar(&expectedBatch, "expect", "", "Fail unless this generation batch is still active")
	teamsGenerateCmd.Flags().Int64Var(&seed, "seed", -1, "Seed for a reproducible split (negative for random)")
	teamsGenerateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview the split without storing it")

	matchesCmd.AddCommand(matchesGenerateCmd, matchesListCmd)
	matchesGenerateCmd.Flags().StringVarP(&format, "format", "f", "league", "league or bracket")
	matchesGenerateCmd.Flags().StringVarP(&competitionType, "type", "t", "team", "team or individual")
	matchesGenerateCmd.Flags().StringVar(&expectedBatch, "expect", "", "Fail unless this schedule batch is still active")
	matchesGenerateCmd.Flags().Int64Var(&seed, "seed", -1, "Seed for reproducible bracket draws (negative for random)")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Get lifetime counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/stats")
	},
}

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "List the participants of an event",
	RunE: func(cmd *cobra.Command, args []string) error {
		return eventGet("/roster")
	},
}

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "Generate or list teams",
}

var teamsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Split the attending roster into teams",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{
			"team_count": teamCount,
			"strategy":   strategy,
		}
		if expectedBatch != "" {
			body["expected_generation_batch_id"] = expectedBatch
		}
		if seed >= 0 {
			body["seed"] = seed
		}
		query := url.Values{}
		if dryRun {
			query.Set("dry_run", "true")
		}
		return eventPost("/teams", query, body)
	},
}

var teamsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the active teams",
	RunE: func(cmd *cobra.Command, args []string) error {
		return eventGet("/teams")
	},
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "Generate or list matches",
}

var matchesGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Build a league or bracket schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{
			"format":           format,
			"competition_type": competitionType,
		}
		if expectedBatch != "" {
			body["expected_schedule_batch_id"] = expectedBatch
		}
		if seed >= 0 {
			body["seed"] = seed
		}
		return eventPost("/matches", nil, body)
	},
}

var matchesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the active schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		return eventGet("/matches")
	},
}

var resultCmd = &cobra.Command{
	Use:   "result <matchID> <scoreA> <scoreB>",
	Short: "Record the result of a match",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		scoreA, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid score %q: %w", args[1], err)
		}
		scoreB, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid score %q: %w", args[2], err)
		}
		return eventPost("/matches/"+url.PathEscape(args[0])+"/result", nil, map[string]int{
			"score_a": scoreA,
			"score_b": scoreB,
		})
	},
}

var standingsCmd = &cobra.Command{
	Use:   "standings",
	Short: "Show the league table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return eventGet("/standings")
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show where the event is in its lifecycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		return eventGet("/state")
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List every schedule generated for the event",
	RunE: func(cmd *cobra.Command, args []string) error {
		return eventGet("/schedules")
	},
}

func eventPath(endpoint string) (string, error) {
	if eventID == "" {
		return "", errEventRequired
	}
	return "/events/" + url.PathEscape(eventID) + endpoint, nil
}

func eventGet(endpoint string) error {
	path, err := eventPath(endpoint)
	if err != nil {
		return err
	}
	return performGetRequest(path)
}

func eventPost(endpoint string, query url.Values, body any) error {
	path, err := eventPath(endpoint)
	if err != nil {
		return err
	}
	return performRequest(http.MethodPost, path, query, body)
}

func performGetRequest(endpoint string) error {
	return performRequest(http.MethodGet, endpoint, nil, nil)
}

func performRequest(method, endpoint string, query url.Values, body any) error {
	if query == nil {
		query = url.Values{}
	}
	if verbose {
		query.Set("verbose", "true")
	}
	target := host + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	fmt.Printf("Making %s request to %s\n", method, target)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(prettyJSON(respBody))

	return nil
}

func prettyJSON(body []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return string(body)
	}
	return out.String()
}
