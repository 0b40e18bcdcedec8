// Package cli implements the storefront-admin operator commands.
package cli

import (
	"context"
	"time"

	"github.com/dimitrije/storefront-admin/internal/admin"
	"github.com/dimitrije/storefront-admin/internal/config"
	"github.com/dimitrije/storefront-admin/internal/docstore"
	"github.com/dimitrije/storefront-admin/internal/repository"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags and the backends commands talk to.
type RootOptions struct {
	Timeout time.Duration

	LoadConfig  func() (*config.Config, error)
	WithStore   func(ctx context.Context, cfg *config.Config, fn func(repository.UserStore) error) error
	InitReplSet func(ctx context.Context, cfg *config.Config, settle time.Duration) (*docstore.ReplSetResult, error)
}

// NewRootCommand creates the root command wired to the real backends.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{
		LoadConfig:  config.Load,
		WithStore:   admin.WithStore,
		InitReplSet: initReplSet,
	})
}

func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storefront-admin",
		Short: "Storefront back-office operator tasks",
		Long: `Operator tasks for the storefront admin backend.

Connection settings are read from the environment (and .env), the same
variables the API server uses.`,
	}

	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "overall deadline for the command")

	cmd.AddCommand(NewCreateAdminCommand(opts))
	cmd.AddCommand(NewVerifyAdminCommand(opts))
	cmd.AddCommand(NewPromoteAdminCommand(opts))
	cmd.AddCommand(NewInitReplSetCommand(opts))

	return cmd
}

func (o *RootOptions) deadline(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, o.Timeout)
}

func initReplSet(ctx context.Context, cfg *config.Config, settle time.Duration) (*docstore.ReplSetResult, error) {
	store, err := docstore.Connect(ctx, cfg.Mongo.URI, "admin")
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close(context.WithoutCancel(ctx)) }()

	return docstore.InitReplicaSet(ctx, store.Admin(), cfg.Mongo.ReplicaSet, cfg.Mongo.ReplSetHost, settle)
}
