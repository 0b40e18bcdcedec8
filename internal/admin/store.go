package admin

import (
	"context"
	"fmt"

	"github.com/dimitrije/storefront-admin/internal/config"
	"github.com/dimitrije/storefront-admin/internal/database"
	"github.com/dimitrije/storefront-admin/internal/docstore"
	"github.com/dimitrije/storefront-admin/internal/repository"
)

// WithStore connects to the configured backend, runs migrations and hands
// the user store to fn. The connection is released on every return path.
func WithStore(ctx context.Context, cfg *config.Config, fn func(repository.UserStore) error) error {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			return err
		}
		return fn(repository.NewPgUserRepository(db))

	case config.DriverMongo:
		store, err := docstore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close(context.WithoutCancel(ctx)) }()

		if err := docstore.Migrate(ctx, store.DB); err != nil {
			return err
		}
		return fn(repository.NewMongoUserRepository(store.DB))

	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
}
