// cmd/clubverse/admin.go
package main

import (
	"errors"
	"fmt"

	"clubverse/internal/account"
	"clubverse/internal/eventstore"
	"clubverse/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := storage.Open(cmd.Context(), a.cfg.Database.URL, storage.PoolConfig{})
			if err != nil {
				return err
			}
			defer db.Close()

			if err := storage.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			a.logger.Info("schema up to date")
			return nil
		},
	}
}

func (a *app) seedCommand() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a user for local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := account.NewService(
				account.NewPostgresStore(eventstore.NewEventStore(db), db),
				account.NewTokenIssuer(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL),
				a.logger,
			)
			u, err := svc.Register(ctx, account.RegisterRequest{Name: name, Email: email, Password: password})
			if errors.Is(err, account.ErrEmailTaken) {
				a.logger.Info("test user already exists", zap.String("email", email))
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Test User", "display name")
	cmd.Flags().StringVar(&email, "email", "test@clubverse.example", "login email")
	cmd.Flags().StringVar(&password, "password", "Test@1234", "login password")
	return cmd
}
