package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host    string
	eventID string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "teamsheet-cli",
	Short: "A CLI to interact with the teamsheet server",
	Long: `A command-line interface for splitting an event's roster into teams,
building match schedules and recording results through the teamsheet API.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
	rootCmd.PersistentFlags().StringVarP(&eventID, "event", "e", "", "The event to operate on")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Ask the server for debug logging on this request")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
