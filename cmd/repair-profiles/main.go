package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/voyagery/voyagery-api/internal/config"
	"github.com/voyagery/voyagery-api/internal/database"
	"github.com/voyagery/voyagery-api/internal/services"
)

func main() {
	dryRun := false
	switch {
	case len(os.Args) == 1:
	case len(os.Args) == 2 && os.Args[1] == "--dry-run":
		dryRun = true
	default:
		fmt.Println("Usage: repair-profiles [--dry-run]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	profiles := services.NewProfileService(db)

	users, err := profiles.UsersMissingProfile(ctx)
	if err != nil {
		log.Fatalf("Failed to list users: %v", err)
	}
	if len(users) == 0 {
		fmt.Println("Every user with a role has a profile")
		return
	}

	repaired := 0
	for i := range users {
		user := &users[i]
		if dryRun {
			fmt.Printf("would create %s profile for %s (%s)\n", user.Role, user.Email, user.ID)
			continue
		}
		if _, err := profiles.EnsureForUser(ctx, user); err != nil {
			log.Printf("Failed to repair profile for %s: %v", user.ID, err)
			continue
		}
		repaired++
	}

	if dryRun {
		fmt.Printf("%d profiles missing\n", len(users))
		return
	}
	fmt.Printf("Created %d of %d missing profiles\n", repaired, len(users))
}
