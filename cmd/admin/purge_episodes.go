// Command admin purges completed episodes and their audio artifacts
// once they age past the retention window.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/castforge/castforge/internal/core/config"
	"github.com/castforge/castforge/internal/infra/storage"
	"github.com/castforge/castforge/internal/infra/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	olderThan := flag.Duration("older-than", 30*24*time.Hour, "Purge completed episodes older than this")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		fmt.Fprintln(os.Stderr, "database.url is required")
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to connect:", err)
		os.Exit(1)
	}
	defer db.Close()

	artifacts, err := storage.NewArtifactStore(cfg.Media.Dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open media dir:", err)
		os.Exit(1)
	}

	repo := postgres.NewEpisodeRepo(db)
	cutoff := time.Now().Add(-*olderThan)

	deleted, err := repo.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to purge episodes:", err)
		os.Exit(1)
	}
	for _, id := range deleted {
		if err := artifacts.Remove(id); err != nil {
			fmt.Fprintln(os.Stderr, "failed to remove artifact", id, ":", err)
		}
	}

	fmt.Printf("Purged %d episodes completed before %s\n", len(deleted), cutoff.Format(time.RFC3339))
}
