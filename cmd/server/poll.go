package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"liyu1981.xyz/glucose-watch-service/pkg/db"
	"liyu1981.xyz/glucose-watch-service/pkg/events"
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run a single CGM poll cycle and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.CGMEnabled() {
			return fmt.Errorf("CGM_CLIENT_ID and CGM_CLIENT_SECRET must be set")
		}

		return withDB(func(dbInstance *db.DB) error {
			ctx := cmd.Context()

			bus := events.NewBus(events.Options{})
			defer bus.Close()

			poller, cleanup, err := newPoller(ctx, cfg, dbInstance, newMonitor(cfg, dbInstance, bus))
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := poller.RunCycle(ctx)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(pollCmd)
}
