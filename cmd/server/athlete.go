package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"liyu1981.xyz/glucose-watch-service/pkg/db"
)

var athleteEmail string

var athleteCmd = &cobra.Command{
	Use:   "athlete",
	Short: "Manage the monitored athlete",
}

var athleteSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Designate an existing user as the monitored athlete",
	RunE: func(cmd *cobra.Command, args []string) error {
		if athleteEmail == "" {
			return fmt.Errorf("--email is required")
		}
		return withDB(func(dbInstance *db.DB) error {
			user, err := newMonitor(cfg, dbInstance, nil).User.SetAthlete(cmd.Context(), athleteEmail)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Athlete set: %s (id %d)\n", user.Email, user.ID)
			return nil
		})
	},
}

var athleteShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the monitored athlete",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(dbInstance *db.DB) error {
			user, err := newMonitor(cfg, dbInstance, nil).User.GetAthlete(cmd.Context())
			if err != nil {
				return err
			}
			if user == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No athlete designated")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Athlete: %s (id %d)\n", user.Email, user.ID)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(athleteCmd)
	athleteCmd.AddCommand(athleteSetCmd, athleteShowCmd)
	athleteSetCmd.Flags().StringVar(&athleteEmail, "email", "", "Email of the user to designate")
}
