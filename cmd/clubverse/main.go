// cmd/clubverse/main.go
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"clubverse/internal/config"
	"clubverse/internal/logging"
	"clubverse/internal/storage"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var version = "dev"

// app holds what every subcommand needs once flags are parsed.
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	logger     *zap.Logger
}

func main() {
	a := &app{v: viper.New()}
	if err := a.rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "clubverse",
		Short:         "Nightclub reservations and memberships",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./clubverse.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-env", "development", "development or production")
	flags.String("database-url", "", "Postgres connection string")
	a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	a.v.BindPFlag("log.env", flags.Lookup("log-env"))
	a.v.BindPFlag("database.url", flags.Lookup("database-url"))

	root.AddCommand(
		a.serveCommand(),
		a.migrateCommand(),
		a.seedCommand(),
		a.quoteCommand(),
		a.membershipCommand(),
		a.chaosCommand(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// openDB connects and, when configured, migrates.
func (a *app) openDB(ctx context.Context) (*sql.DB, error) {
	db, err := storage.Open(ctx, a.cfg.Database.URL, storage.PoolConfig{
		MaxOpenConns:    a.cfg.Database.MaxOpenConns,
		MaxIdleConns:    a.cfg.Database.MaxIdleConns,
		ConnMaxLifetime: a.cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	if a.cfg.Database.AutoMigrate {
		if err := storage.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}
