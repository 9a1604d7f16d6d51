package main

import (
	"fmt"

	"github.com/Veraticus/smarttrack/internal/cli"
	"github.com/Veraticus/smarttrack/internal/ledger"
	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill your ledger with sample payments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if demo, _ := cmd.Flags().GetBool("demo"); !demo {
				return fmt.Errorf("nothing to seed: pass --demo")
			}

			a, userID, err := signedIn(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.ledger.Seed(cmd.Context(), userID, ledger.DemoTransactions())
			if err != nil {
				return fmt.Errorf("seeded %d payments before failing: %w", n, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %d sample payments", n)))
			return nil
		},
	}

	cmd.Flags().Bool("demo", false, "Add the demo ledger")

	return cmd
}
