package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/smarttrack/internal/cli"
	"github.com/Veraticus/smarttrack/internal/flow"
	"github.com/Veraticus/smarttrack/internal/pattern"
	"github.com/Veraticus/smarttrack/internal/tui"
	"github.com/Veraticus/smarttrack/internal/tui/themes"
	"github.com/spf13/cobra"
)

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the chat assistant",
		Long: `Open the interactive chat.

Ask questions about your spending in plain language. Press ctrl+p to simulate
an incoming payment, then pick its category with the number keys.`,
		RunE: runChat,
	}

	cmd.Flags().String("theme", "default", "Color theme (default, catppuccin-mocha)")
	cmd.Flags().Bool("inline", false, "Render in the terminal instead of the alternate screen")

	return cmd
}

func runChat(cmd *cobra.Command, _ []string) error {
	themeName, _ := cmd.Flags().GetString("theme")
	inline, _ := cmd.Flags().GetBool("inline")

	a, userID, err := signedIn(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	answerer, err := a.newResponder(cmd.Context())
	if err != nil {
		return err
	}

	return tui.Run(a.coordinator(), answerer,
		tui.WithContext(cmd.Context()),
		tui.WithLogger(a.logger),
		tui.WithUserID(userID),
		tui.WithTheme(themes.ByName(themeName)),
		tui.WithAltScreen(!inline))
}

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Categorize simulated payments in the terminal",
		Long: `Simulate incoming payments and categorize each one as it arrives.

Answer with a number, a category name, or "s" to skip. Press ctrl+c to stop;
payments saved so far stay in your ledger.`,
		RunE: runSimulate,
	}

	cmd.Flags().IntP("count", "n", 1, "Number of payments to simulate")
	cmd.Flags().Int64("seed", 0, "Random seed (default: current time)")

	return cmd
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	count, _ := cmd.Flags().GetInt("count")
	seed, _ := cmd.Flags().GetInt64("seed")
	if count < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	a, userID, err := signedIn(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	interrupts := cli.NewInterruptHandler(out)
	ctx := interrupts.HandleInterrupts(cmd.Context(), count > 1)

	prompter := cli.NewPrompter(cmd.InOrStdin(), out)
	prompter.SetTotalTransactions(count)
	simulator := flow.NewSimulator(nil, seed)
	suggester := pattern.NewDefaultSuggester()
	coordinator := a.coordinator()

	for i := 0; i < count; i++ {
		pending := simulator.Next()
		suggested, _ := suggester.Best(pending)
		_, err := prompter.Categorize(ctx, coordinator, userID, pending, suggested)
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

	if count > 1 {
		prompter.ShowCompletion()
	}
	return nil
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the assistant one question",
		Example: `  smarttrack ask "How much did I spend on food?"
  smarttrack ask "top categories"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, userID, err := signedIn(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			answerer, err := a.newResponder(cmd.Context())
			if err != nil {
				return err
			}

			reply, err := answerer.Respond(cmd.Context(), userID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if strings.TrimSpace(reply) == "" {
				reply = flow.EmptyReplyFallback
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderMessage(reply))
			return nil
		},
	}
}
