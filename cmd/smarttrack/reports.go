package main

import (
	"encoding/json"
	"fmt"

	"github.com/Veraticus/smarttrack/internal/aggregate"
	"github.com/Veraticus/smarttrack/internal/cli"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/spf13/cobra"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show spending by category",
		RunE:  runSummary,
	}

	cmd.Flags().Int("top", aggregate.DefaultTopCategories, "Number of categories to show (negative for all)")
	cmd.Flags().Bool("json", false, "Print JSON")

	return cmd
}

func runSummary(cmd *cobra.Command, _ []string) error {
	top, _ := cmd.Flags().GetInt("top")
	asJSON, _ := cmd.Flags().GetBool("json")

	a, userID, err := signedIn(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.ledger.Summary(cmd.Context(), userID, top)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderSummary(summary))
	return nil
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List transactions by day",
		RunE:  runHistory,
	}

	cmd.Flags().String("category", "", "Only show one category")
	cmd.Flags().Int("limit", 0, "Show at most this many days (0 for all)")
	cmd.Flags().Bool("json", false, "Print JSON")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	categoryName, _ := cmd.Flags().GetString("category")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	var category model.Category
	if categoryName != "" {
		c, ok := model.ClosestCategory(categoryName)
		if !ok {
			return fmt.Errorf("unknown category: %s", categoryName)
		}
		category = c
	}

	a, userID, err := signedIn(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	txns, err := a.ledger.Transactions(cmd.Context(), userID)
	if err != nil {
		return err
	}
	if category != "" {
		txns = aggregate.InCategory(txns, category)
	}

	groups := aggregate.DateGroups(txns, a.loc)
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(groups)
	}
	fmt.Fprint(cmd.OutOrStdout(), cli.RenderHistory(groups, a.loc))
	return nil
}
