package cli

import (
	"errors"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/auth"
	"github.com/spf13/cobra"
)

var appInstance *app.App

var rootCmd = &cobra.Command{
	Use:   "invoicer",
	Short: "Create, track and export invoices from the terminal",
	Long: `Invoicer manages clients and invoices, with a local customer book and
product catalog.

By default, running invoicer without arguments launches the interactive TUI.
Use subcommands for CLI operations.`,
	SilenceUsage:      true,
	PersistentPreRunE: initSession,
	Run: func(cmd *cobra.Command, args []string) {
		launchTUI(cmd, args)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetApp sets the app instance for commands to use
func SetApp(a *app.App) {
	appInstance = a
}

// initSession restores the stored sign-in before any command runs
func initSession(cmd *cobra.Command, args []string) error {
	if appInstance == nil {
		return nil
	}
	return appInstance.Session.Init(cmd.Context())
}

// signedIn is the PersistentPreRunE of command groups that touch owned data.
// Cobra runs only the nearest persistent hook, so it restores the session too.
func signedIn(cmd *cobra.Command, args []string) error {
	if err := initSession(cmd, args); err != nil {
		return err
	}
	return requireUser()
}

// requireUser fails commands that touch owned data while signed out
func requireUser() error {
	if _, err := appInstance.Session.CurrentUser(); err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			return errors.New("not signed in; run 'invoicer login --email you@example.com' first")
		}
		return err
	}
	return nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(clientsCmd)
	rootCmd.AddCommand(invoicesCmd)
	rootCmd.AddCommand(customersCmd)
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(tuiCmd)
}
