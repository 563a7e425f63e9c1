package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"dailybright/internal/cache"
	"dailybright/internal/config"
	"dailybright/internal/database"
	"dailybright/internal/middleware"
	"dailybright/internal/prompt"
	"dailybright/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedCatalog bool
}

// Runtime holds the long-lived connections and the prompt catalog.
type Runtime struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Catalog *prompt.Catalog
}

// InitRuntime connects to DB and Redis, loads the prompt catalog and
// optionally stores the catalog prompts.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	catalog, err := prompt.LoadCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("load prompt catalog: %w", err)
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// May be nil if unreachable.
	r := cache.NewClient(ctx, cfg.RedisURL)

	if opts.SeedCatalog {
		added, err := seed.Catalog(db.WithContext(ctx), catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to seed prompt catalog: %w", err)
		}
		if added > 0 {
			middleware.Logger.Info("prompt catalog stored", slog.Int("added", added))
		}
	}

	return &Runtime{DB: db, Redis: r, Catalog: catalog}, nil
}
