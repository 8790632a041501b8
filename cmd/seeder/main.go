package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mauv0809/teamsheet/internal/database"
	"github.com/mauv0809/teamsheet/internal/roster"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := make(map[string]string)
	required := []string{"DB_NAME"}
	optional := []string{"TURSO_PRIMARY_URL", "TURSO_AUTH_TOKEN"}

	for _, key := range required {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		} else {
			log.Fatalf("Error: Required environment variable %s is not set.", key)
		}
	}
	for _, key := range optional {
		config[key] = os.Getenv(key)
	}
	return config
}

var names = []string{
	"Aiko", "Ben", "Chiara", "Daichi", "Emma", "Farid", "Greta", "Haruto",
	"Ines", "Jonas", "Kaito", "Lena", "Mei", "Nils", "Olga", "Pablo",
}

func main() {
	event := flag.String("event", "", "Event to seed (a new id when empty)")
	players := flag.Int("players", 12, "Number of members to add")
	guests := flag.Int("guests", 2, "Number of unrated guests to add")
	flag.Parse()

	log.Info("Starting database seeder...")
	cfg := loadConfig()

	db, teardown, err := database.InitDB(cfg["DB_NAME"], cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"])
	if err != nil {
		log.Fatalf("Failed to open database: %s", err)
	}
	defer teardown()

	eventID := *event
	if eventID == "" {
		eventID = uuid.New().String()
	}
	store := roster.New(db)
	ctx := context.Background()

	for i := 0; i < *players; i++ {
		name := names[i%len(names)]
		if i >= len(names) {
			name = fmt.Sprintf("%s %d", name, i/len(names)+1)
		}
		p := roster.Participant{
			EventID:     eventID,
			DisplayName: name,
			Attending:   rand.Intn(10) > 0,
		}
		// Leave roughly a quarter of the members unrated.
		if rand.Intn(4) > 0 {
			skill := float64(rand.Intn(9)+1) + float64(rand.Intn(10))/10
			p.SkillScore = &skill
		}
		if _, err := store.UpsertParticipant(ctx, p); err != nil {
			log.Fatalf("Failed to insert participant %s: %s", name, err)
		}
	}
	for i := 0; i < *guests; i++ {
		if _, err := store.AddGuest(ctx, eventID, fmt.Sprintf("Guest %d", i+1), nil); err != nil {
			log.Fatalf("Failed to insert guest: %s", err)
		}
	}

	snapshot, err := store.Snapshot(ctx, eventID)
	if err != nil {
		log.Fatalf("Failed to read back roster: %s", err)
	}
	log.Info("Seeding complete", "eventID", eventID, "participants", *players+*guests, "attending", len(snapshot.Competitors))
}
