package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/smarttrack/internal/cli"
	"github.com/Veraticus/smarttrack/internal/common"
	"github.com/Veraticus/smarttrack/internal/config"
	"github.com/Veraticus/smarttrack/internal/format"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/Veraticus/smarttrack/internal/pattern"
	"github.com/Veraticus/smarttrack/internal/plaid"
	"github.com/spf13/cobra"
)

func plaidCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plaid",
		Short: "Pull payments from a bank linked through Plaid",
		Long: `Pull outgoing payments from a bank account linked through Plaid.

Link an account with Plaid Link using the token from 'plaid link-token', then
save the access token printed by 'plaid exchange' as plaid.access_token.`,
	}

	cmd.AddCommand(plaidPullCmd())
	cmd.AddCommand(plaidAccountsCmd())
	cmd.AddCommand(plaidLinkTokenCmd())
	cmd.AddCommand(plaidExchangeCmd())

	return cmd
}

func plaidClient(cfg config.Config) (*plaid.Client, error) {
	client, err := plaid.NewClient(plaid.Config{
		ClientID:    cfg.Plaid.ClientID,
		Secret:      cfg.Plaid.Secret,
		Environment: cfg.Plaid.Environment,
		AccessToken: cfg.Plaid.AccessToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Plaid client: %w", err)
	}
	return client, nil
}

func plaidPullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Categorize recent payments from the linked account",
		Long: `Fetch settled outgoing payments and categorize them.

By default each payment is prompted for, with Plaid's own category (or the
usual category of a recognized merchant) offered as the suggestion. With
--auto, suggested categories are saved directly and the rest fall back to
--category.`,
		RunE: runPlaidPull,
	}

	cmd.Flags().Int("days", 30, "How many days back to fetch")
	cmd.Flags().Bool("auto", false, "Save suggested categories without prompting")
	cmd.Flags().String("category", string(model.CategoryOther), "Category when no suggestion applies (with --auto)")
	cmd.Flags().BoolP("dry-run", "d", false, "List payments without saving")

	return cmd
}

func runPlaidPull(cmd *cobra.Command, _ []string) error {
	days, _ := cmd.Flags().GetInt("days")
	auto, _ := cmd.Flags().GetBool("auto")
	categoryName, _ := cmd.Flags().GetString("category")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if days < 1 {
		return fmt.Errorf("days must be at least 1")
	}
	fallback, err := model.ParseCategory(categoryName)
	if err != nil {
		return err
	}

	a, userID, err := signedIn(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Plaid.AccessToken == "" {
		return fmt.Errorf("plaid.access_token is not set: link an account with 'smarttrack plaid link-token' and 'smarttrack plaid exchange'")
	}
	client, err := plaidClient(a.cfg)
	if err != nil {
		return err
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)
	payments, err := client.GetTransactions(ctx, start, end)
	if err != nil {
		return err
	}
	recorded, err := a.ledger.RecordedSources(ctx, userID)
	if err != nil {
		return err
	}
	payments, skipped := plaid.DropRecorded(payments, recorded)
	if skipped > 0 {
		slog.Info("Skipping payments imported earlier", "count", skipped)
	}
	if len(payments) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No new payments."))
		return nil
	}
	plaid.SortOldestFirst(payments)

	suggester := pattern.NewDefaultSuggester()
	for i, p := range payments {
		if p.Suggested == "" {
			payments[i].Suggested, _ = suggester.Best(p.Pending)
		}
	}

	if dryRun {
		for _, p := range payments {
			suggested := "-"
			if p.Suggested != "" {
				suggested = p.Suggested.Display()
			}
			fmt.Fprintf(out, "  %s  %-32s %12s  %s\n",
				format.Date(p.Date), p.Pending.MerchantName, format.Currency(p.Pending.Amount), suggested)
		}
		fmt.Fprintf(out, "\n%d payments would be imported.\n", len(payments))
		return nil
	}

	if auto {
		saved := 0
		for _, p := range payments {
			category := p.Suggested
			if category == "" {
				category = fallback
			}
			_, err := a.ledger.Record(ctx, userID, p.Pending.Categorize(category))
			if errors.Is(err, common.ErrDuplicateEntry) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to save payment at %s: %w", p.Pending.MerchantName, err)
			}
			saved++
		}
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d payments", saved)))
		return nil
	}

	interrupts := cli.NewInterruptHandler(out)
	ctx = interrupts.HandleInterrupts(ctx, true)

	prompter := cli.NewPrompter(cmd.InOrStdin(), out)
	prompter.SetTotalTransactions(len(payments))
	coordinator := a.coordinator()

	for _, p := range payments {
		_, err := prompter.Categorize(ctx, coordinator, userID, p.Pending, p.Suggested)
		prompter.Advance()
		switch {
		case err == nil, errors.Is(err, cli.ErrSkipped):
			continue
		case interrupts.WasInterrupted(), errors.Is(err, context.Canceled), errors.Is(err, cli.ErrInputCancelled):
			return nil
		default:
			return err
		}
	}
	prompter.ShowCompletion()
	return nil
}

func plaidAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List the accounts behind the access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := plaidClient(cfg)
			if err != nil {
				return err
			}
			ids, err := client.GetAccounts(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No accounts are linked."))
				return nil
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
}

func plaidLinkTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link-token",
		Short: "Create a Plaid Link token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := plaidClient(cfg)
			if err != nil {
				return err
			}
			token, err := client.CreateLinkToken(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func plaidExchangeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exchange <public-token>",
		Short: "Exchange a Plaid Link public token for an access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := plaidClient(cfg)
			if err != nil {
				return err
			}
			accessToken, itemID, err := client.ExchangePublicToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Item ID:      %s\n", itemID)
			fmt.Fprintf(out, "Access token: %s\n\n", accessToken)
			fmt.Fprintln(out, cli.FormatInfo("Set plaid.access_token (or SMARTTRACK_PLAID_ACCESS_TOKEN) to this value."))
			return nil
		},
	}
}
