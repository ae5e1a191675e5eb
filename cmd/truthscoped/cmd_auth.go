package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/protocol"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/session"
)

// authCmd manages the Google session used for analysis calls
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the TruthScope session",
	Long: `Manage the Google session the coordinator authenticates analysis calls with.

Available subcommands:
  login  - Sign in via Google OAuth
  logout - Sign out and revoke the cached credential
  status - Show the current session state`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in via Google OAuth",
	Long: `Sign in to TruthScope with a Google account.

This command:
1. Opens a browser for Google OAuth consent
2. Caches the token under the state directory
3. Prints the signed-in profile`,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and revoke the cached credential",
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session state",
	RunE:  runAuthStatus,
}

var (
	statusTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	statusOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	statusWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	statusDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type discardNotifier struct{}

func (discardNotifier) Broadcast(protocol.Event) int { return 0 }

func newLocalSession() (*session.Manager, error) {
	dir, err := resolveStateDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state directory: %w", err)
	}
	provider := session.NewGoogleProvider(dir)
	return session.NewManager(provider, discardNotifier{}), nil
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	sess, err := newLocalSession()
	if err != nil {
		return err
	}

	fmt.Println("Opening browser for Google sign-in...")
	profile, err := sess.SignIn(cmd.Context())
	if err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}

	fmt.Println(statusOKStyle.Render("Signed in."))
	fmt.Printf("  %s %s\n", statusDimStyle.Render("Account:"), profile.Email)
	if profile.DisplayName != "" {
		fmt.Printf("  %s %s\n", statusDimStyle.Render("Name:"), profile.DisplayName)
	}
	fmt.Println()
	fmt.Println("A running daemon picks the session up on its next start.")
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	sess, err := newLocalSession()
	if err != nil {
		return err
	}

	// Restore whatever is cached so sign-out has a credential to revoke.
	sess.CheckInitialState(cmd.Context())
	sess.SignOut(cmd.Context())
	fmt.Println(statusOKStyle.Render("Signed out."))
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	sess, err := newLocalSession()
	if err != nil {
		return err
	}
	sess.CheckInitialState(cmd.Context())

	fmt.Println(statusTitleStyle.Render("TruthScope session"))
	signedIn, profile := sess.AuthState()
	if !signedIn {
		fmt.Println(statusWarnStyle.Render("  Not signed in."))
		fmt.Println(statusDimStyle.Render("  Run 'truthscoped auth login' to sign in."))
		return nil
	}

	fmt.Printf("  %s %s\n", statusDimStyle.Render("State:"), statusOKStyle.Render("signed in"))
	fmt.Printf("  %s %s\n", statusDimStyle.Render("Account:"), profile.Email)
	if profile.DisplayName != "" {
		fmt.Printf("  %s %s\n", statusDimStyle.Render("Name:"), profile.DisplayName)
	}
	return nil
}
