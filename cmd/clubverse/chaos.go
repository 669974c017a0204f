// cmd/clubverse/chaos.go
package main

import (
	"encoding/json"
	"time"

	"clubverse/internal/chaos"
	"clubverse/internal/eventstore"
	"clubverse/internal/membership"

	"github.com/spf13/cobra"
)

func (a *app) chaosCommand() *cobra.Command {
	var duration, latency time.Duration
	cmd := &cobra.Command{
		Use:   "chaos",
		Short: "Run fault injection experiments against the membership store",
		Long: "Runs the store outage and store latency experiments against the configured " +
			"database. Probe purchases are written during the steady state checks.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			injector := chaos.NewInjector(0, 0, a.cfg.Chaos.Seed)
			store := chaos.WrapMembershipStore(membership.NewPostgresStore(eventstore.NewEventStore(db), db), injector)
			svc := membership.NewService(store, a.logger.Named("membership"))
			engine := chaos.NewEngine(a.logger.Named("chaos"))

			for _, exp := range []chaos.Experiment{
				chaos.StoreOutageExperiment(svc, injector, duration),
				chaos.StoreLatencyExperiment(svc, injector, latency, duration),
			} {
				if _, err := engine.Run(ctx, exp); err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(engine.Results())
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "observation time per experiment")
	cmd.Flags().DurationVar(&latency, "latency", 250*time.Millisecond, "latency injected by the latency experiment")
	return cmd
}
