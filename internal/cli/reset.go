package cli

import (
	"fmt"

	"github.com/andy/invoicer/internal/store"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete your data",
	Long: `Delete data owned by the signed-in user.

Examples:
  invoicer reset invoices    # Delete all of your invoices and their line items
  invoicer reset local       # Clear the local customer book and product catalog
  invoicer reset all         # Wipe everything: invoices, clients, local lists`,
}

func confirmReset(cmd *cobra.Command, message string) bool {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true
	}
	if confirmPrompt(cmd.InOrStdin(), cmd.OutOrStdout(), message) {
		return true
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
	return false
}

func deleteAllInvoices(cmd *cobra.Command) error {
	user, err := appInstance.Session.CurrentUser()
	if err != nil {
		return err
	}
	return appInstance.InvoiceRepo.DeleteAll(cmd.Context(), user.ID)
}

var resetInvoicesCmd = &cobra.Command{
	Use:               "invoices",
	Short:             "Delete all invoices and their line items",
	PersistentPreRunE: signedIn,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmReset(cmd, "This will delete ALL of your invoices. Continue?") {
			return nil
		}

		if err := deleteAllInvoices(cmd); err != nil {
			return fmt.Errorf("failed to clear invoices: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "All invoices have been deleted.")
		return nil
	},
}

var resetLocalCmd = &cobra.Command{
	Use:   "local",
	Short: "Clear the local customer book and product catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmReset(cmd, "This will delete ALL local customers and products. Continue?") {
			return nil
		}

		if err := appInstance.ResetLocal(); err != nil {
			return fmt.Errorf("failed to clear local lists: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Local customers and products have been deleted.")
		return nil
	},
}

var resetAllCmd = &cobra.Command{
	Use:               "all",
	Short:             "Delete ALL data: invoices, clients, local lists",
	PersistentPreRunE: signedIn,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmReset(cmd, "This will delete ALL data (invoices, clients, customers, products). Continue?") {
			return nil
		}

		// invoices first; clients with invoices cannot be deleted
		if err := deleteAllInvoices(cmd); err != nil {
			return fmt.Errorf("failed to clear invoices: %w", err)
		}

		user, err := appInstance.Session.CurrentUser()
		if err != nil {
			return err
		}
		if err := appInstance.Store.Delete(cmd.Context(), store.TableClients, store.Eq("owner_id", user.ID)); err != nil {
			return fmt.Errorf("failed to clear clients: %w", err)
		}

		if err := appInstance.ResetLocal(); err != nil {
			return fmt.Errorf("failed to clear local lists: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "All data has been deleted.")
		return nil
	},
}

func init() {
	resetCmd.AddCommand(resetInvoicesCmd)
	resetCmd.AddCommand(resetLocalCmd)
	resetCmd.AddCommand(resetAllCmd)

	resetCmd.PersistentFlags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
