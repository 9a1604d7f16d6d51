package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/smarttrack/internal/auth"
	"github.com/Veraticus/smarttrack/internal/cli"
	"github.com/spf13/cobra"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage your SmartTrack account",
		Long: `Create an account, sign in and out.

The session token is saved to auth.token_path and used by every other
command, and by the remote responder when it talks to a server.`,
	}

	cmd.AddCommand(authCredentialsCmd("signup", "Create an account and sign in"))
	cmd.AddCommand(authCredentialsCmd("signin", "Sign in to an existing account"))
	cmd.AddCommand(authSignoutCmd())
	cmd.AddCommand(authWhoamiCmd())

	return cmd
}

func authCredentialsCmd(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE:  runAuthCredentials,
	}

	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password (prompted when omitted)")

	return cmd
}

func runAuthCredentials(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	var err error
	if email == "" {
		if email, err = prompter.ReadLine(ctx, "Email"); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = prompter.ReadLine(ctx, "Password"); err != nil {
			return err
		}
	}

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	var session auth.Session
	if cmd.Name() == "signup" {
		session, err = a.auth.SignUp(ctx, email, password)
	} else {
		session, err = a.auth.SignIn(ctx, email, password)
	}
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return fmt.Errorf("password must be at least %d characters: %w", auth.MinPasswordLength, err)
		}
		return err
	}

	if err := auth.SaveToken(a.cfg.Auth.TokenPath, session.Token); err != nil {
		return err
	}
	slog.Debug("Saved session token", "path", a.cfg.Auth.TokenPath, "expires_at", session.ExpiresAt)

	fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render(fmt.Sprintf("✓ Signed in as %s", session.User.Email)))
	return nil
}

func authSignoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := auth.RemoveToken(cfg.Auth.TokenPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func authWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
}

// signedIn opens the app with events enabled and resolves the current user.
func signedIn(cmd *cobra.Command) (*app, string, error) {
	a, err := newApp(cmd.Context(), appOptions{events: true})
	if err != nil {
		return nil, "", err
	}
	user, err := a.currentUser(cmd.Context())
	if err != nil {
		a.Close()
		return nil, "", err
	}
	return a, user.ID, nil
}
