package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with an email address or an identity token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		token, _ := cmd.Flags().GetString("token")
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")

		session := appInstance.Session
		var err error
		switch {
		case token != "":
			_, err = session.SignIn(ctx, token)
		case email != "":
			_, err = session.SignInWithEmail(ctx, email, name)
		default:
			return fmt.Errorf("either --email or --token is required")
		}
		if err != nil {
			return fmt.Errorf("failed to sign in: %w", err)
		}

		user, _ := session.CurrentUser()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Signed in as %s\n", user.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := appInstance.Session.SignOut(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := appInstance.Session.CurrentUser()
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
			return nil
		}
		out := cmd.OutOrStdout()
		if user.Name != "" {
			fmt.Fprintf(out, "%s <%s>\n", user.Name, user.Email)
		} else {
			fmt.Fprintln(out, user.Email)
		}
		fmt.Fprintf(out, "User ID: %s\n", user.ID)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "Email address to sign in with")
	loginCmd.Flags().String("name", "", "Display name")
	loginCmd.Flags().String("token", "", "Signed identity token")
}
