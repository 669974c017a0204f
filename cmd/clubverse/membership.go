// cmd/clubverse/membership.go
package main

import (
	"encoding/json"
	"fmt"
	"time"

	"clubverse/internal/clients"
	"clubverse/internal/membership"

	"github.com/spf13/cobra"
)

// quoteCommand prices a membership locally, without a server.
func (a *app) quoteCommand() *cobra.Command {
	var start string
	cmd := &cobra.Command{
		Use:   "quote TYPE PERIOD",
		Short: "Price a membership (gold|platinum|diamond, weekly|monthly|annually)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate := time.Now()
			if start != "" {
				t, err := time.Parse(time.DateOnly, start)
				if err != nil {
					return fmt.Errorf("--start: %w", err)
				}
				startDate = t
			}
			q, err := membership.Compute(membership.Type(args[0]), membership.Period(args[1]), startDate)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s, %s to %s\n",
				q.Type, q.Period, q.TotalAmount,
				q.StartDate.Format(time.DateOnly), q.EndDate.Format(time.DateOnly))
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "start date YYYY-MM-DD (default today)")
	return cmd
}

func (a *app) membershipCommand() *cobra.Command {
	var server string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "membership",
		Short: "Buy and look up memberships through a running server",
	}
	cmd.PersistentFlags().StringVar(&server, "server", "http://localhost:3000", "server base URL")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")

	client := func() *clients.MembershipClient { return clients.NewMembershipClient(server, timeout) }
	printJSON := func(cmd *cobra.Command, v interface{}) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	var p clients.PurchaseParams
	buy := &cobra.Command{
		Use:   "buy",
		Short: "Purchase a membership",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := client().Purchase(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		},
	}
	buy.Flags().StringVar(&p.Name, "name", "", "member name")
	buy.Flags().StringVar(&p.Email, "email", "", "member email")
	buy.Flags().StringVar(&p.Phone, "phone", "", "member phone")
	buy.Flags().StringVar(&p.Type, "type", "gold", "gold, platinum or diamond")
	buy.Flags().StringVar(&p.Period, "period", "monthly", "weekly, monthly or annually")
	buy.Flags().StringVar(&p.StartDate, "start", "", "start date YYYY-MM-DD (default now)")

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show a stored membership",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := client().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, rec)
		},
	}

	history := &cobra.Command{
		Use:   "history ID",
		Short: "Show the event history of a membership",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := client().History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, entries)
		},
	}

	cmd.AddCommand(buy, get, history)
	return cmd
}
