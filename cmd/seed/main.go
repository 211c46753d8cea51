// Command seed creates the demo accounts and optional fake posts.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"dashboard_api/internal/config"
	"dashboard_api/internal/logging"
	"dashboard_api/internal/repository"
	"dashboard_api/internal/seed"
)

func main() {
	numPosts := flag.Int("posts", 0, "Number of fake posts to create for the demo editor")
	maxDays := flag.Int("days", 90, "Spread post creation times over this many past days")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.SetDefault(logging.New(os.Stdout, cfg.IsProduction(), cfg.LogLevel))

	if cfg.StorageBackend == config.StorageMemory {
		slog.Error("Seeding requires STORAGE_BACKEND=postgres")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := config.ConnectDB(ctx, cfg.DSN())
	if err != nil {
		slog.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := config.AutoMigrate(ctx, pool); err != nil {
		slog.Error("Failed to auto-migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	s := seed.NewSeeder(repository.NewUserRepository(pool), repository.NewPostRepository(pool))
	res, err := s.Run(ctx, seed.Options{Posts: *numPosts, MaxDays: *maxDays})
	if err != nil {
		slog.Error("Seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("Seeding complete",
		slog.Int("accounts_created", len(res.Created)),
		slog.Int("accounts_existing", len(res.Existing)),
		slog.Int("posts_created", res.Posts))
	for _, acc := range seed.DemoAccounts {
		slog.Info("Demo account", slog.String("email", acc.Email), slog.String("password", acc.Password), slog.String("role", acc.Role.String()))
	}
}
