package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/dimitrije/storefront-admin/internal/admin"
	"github.com/dimitrije/storefront-admin/internal/models"
	"github.com/dimitrije/storefront-admin/internal/repository"
	"github.com/spf13/cobra"
)

// NewCreateAdminCommand creates the create-admin command.
func NewCreateAdminCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create-admin",
		Short: "Create the administrator account",
		Long: `Create the administrator account from ADMIN_EMAIL, ADMIN_PASSWORD,
ADMIN_FIRST_NAME and ADMIN_LAST_NAME.

Running it again once the account exists changes nothing.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.LoadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := opts.deadline(cmd)
			defer cancel()

			out := cmd.OutOrStdout()
			return opts.WithStore(ctx, cfg, func(users repository.UserStore) error {
				user, err := admin.NewSeeder(users).EnsureAdmin(ctx, cfg.Admin)
				if errors.Is(err, admin.ErrAdminExists) {
					fmt.Fprintf(out, "Admin user already exists: %s\n", cfg.Admin.Email)
					return nil
				}
				if err != nil {
					return err
				}

				fmt.Fprintln(out, "Admin user created")
				printUser(out, user)
				return nil
			})
		},
	}
}

// NewVerifyAdminCommand creates the verify-admin command.
func NewVerifyAdminCommand(opts *RootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:          "verify-admin",
		Short:        "Print the administrator account",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.LoadConfig()
			if err != nil {
				return err
			}
			if email == "" {
				email = cfg.Admin.Email
			}

			ctx, cancel := opts.deadline(cmd)
			defer cancel()

			return opts.WithStore(ctx, cfg, func(users repository.UserStore) error {
				user, err := admin.NewSeeder(users).Describe(ctx, email)
				if err != nil {
					return fmt.Errorf("%s: %w", email, err)
				}
				printUser(cmd.OutOrStdout(), user)
				if !user.IsAdmin() {
					return fmt.Errorf("%s has role %q, not %q", user.Email, user.Role, models.RoleAdmin)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account to check (defaults to ADMIN_EMAIL)")

	return cmd
}

// NewPromoteAdminCommand creates the promote-admin command.
func NewPromoteAdminCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "promote-admin <email>",
		Short: "Grant the admin role to an existing account",
		Long: `Grant the admin role to an existing account.

Example:
  storefront-admin promote-admin jane@example.com`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.LoadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := opts.deadline(cmd)
			defer cancel()

			return opts.WithStore(ctx, cfg, func(users repository.UserStore) error {
				user, err := admin.NewSeeder(users).Promote(ctx, args[0])
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully promoted %s to admin\n", user.Email)
				return nil
			})
		},
	}
}

func printUser(w io.Writer, u *models.User) {
	fmt.Fprintf(w, "  ID:             %s\n", u.ID)
	fmt.Fprintf(w, "  Email:          %s\n", u.Email)
	fmt.Fprintf(w, "  Name:           %s\n", u.FullName())
	fmt.Fprintf(w, "  Role:           %s\n", u.Role)
	fmt.Fprintf(w, "  Provider:       %s\n", u.Provider)
	fmt.Fprintf(w, "  Email verified: %t\n", u.EmailVerified)
	fmt.Fprintf(w, "  Password set:   %t\n", u.PasswordHash != nil)
	fmt.Fprintf(w, "  Created:        %s\n", u.CreatedAt.Format("2006-01-02 15:04:05"))
}
