package cli

import (
	"fmt"

	"github.com/andy/invoicer/internal/domain"
	"github.com/spf13/cobra"
)

var clientsCmd = &cobra.Command{
	Use:               "clients",
	Short:             "Manage clients",
	Long:              `List, add, edit, and delete the clients you invoice.`,
	PersistentPreRunE: signedIn,
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		clients, err := appInstance.ClientService.ListClients(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list clients: %w", err)
		}

		if len(clients) == 0 {
			fmt.Fprintln(out, "No clients found")
			return nil
		}

		fmt.Fprintf(out, "%-9s %-30s %-28s %-20s\n", "ID", "Name", "Email", "City")
		fmt.Fprintln(out, "--------------------------------------------------------------------------------------")

		for _, client := range clients {
			fmt.Fprintf(out, "%-9s %-30s %-28s %-20s\n",
				shortID(client.ID),
				truncate(client.Name, 30),
				truncate(client.Email, 28),
				truncate(client.City, 20),
			)
		}

		fmt.Fprintf(out, "\nTotal: %d client(s)\n", len(clients))
		return nil
	},
}

// clientFlags are shared by add and edit
var clientFlags = []struct{ name, usage string }{
	{"email", "Email address"},
	{"phone", "Phone number"},
	{"address", "Street address"},
	{"city", "City"},
	{"state", "State or region"},
	{"zip", "Postal code"},
	{"country", "Country"},
}

// applyClientFlags copies every flag the user set onto client
func applyClientFlags(cmd *cobra.Command, client *domain.Client) {
	fields := map[string]*string{
		"name":    &client.Name,
		"email":   &client.Email,
		"phone":   &client.Phone,
		"address": &client.Address,
		"city":    &client.City,
		"state":   &client.State,
		"zip":     &client.Zip,
		"country": &client.Country,
	}
	for name, field := range fields {
		if cmd.Flags().Lookup(name) != nil && cmd.Flags().Changed(name) {
			*field, _ = cmd.Flags().GetString(name)
		}
	}
}

var clientsAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a new client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := domain.NewClient("", args[0])
		applyClientFlags(cmd, client)

		if err := appInstance.ClientService.CreateClient(cmd.Context(), client); err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Client created: %s (ID: %s)\n", client.Name, client.ID)
		return nil
	},
}

var clientsEditCmd = &cobra.Command{
	Use:   "edit [id_or_name]",
	Short: "Edit an existing client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := resolveClient(ctx, args[0])
		if err != nil {
			return err
		}

		applyClientFlags(cmd, client)

		if err := appInstance.ClientService.UpdateClient(ctx, client); err != nil {
			return fmt.Errorf("failed to update client: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Client updated: %s\n", client.Name)
		return nil
	},
}

var clientsShowCmd = &cobra.Command{
	Use:   "show [id_or_name]",
	Short: "Show client details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := resolveClient(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", client.Name)
		fmt.Fprintf(out, "  ID:       %s\n", client.ID)
		for _, row := range [][2]string{
			{"Email", client.Email},
			{"Phone", client.Phone},
			{"Address", client.Address},
			{"Locality", client.Locality()},
			{"Country", client.Country},
		} {
			if row[1] != "" {
				fmt.Fprintf(out, "  %-9s %s\n", row[0]+":", row[1])
			}
		}
		fmt.Fprintf(out, "  Created:  %s\n", displayDate(client.CreatedAt))
		return nil
	},
}

var clientsDeleteCmd = &cobra.Command{
	Use:   "delete [id_or_name]",
	Short: "Delete a client without invoices",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := resolveClient(ctx, args[0])
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirmPrompt(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete client %s?", client.Name)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}

		if err := appInstance.ClientService.DeleteClient(ctx, client.ID); err != nil {
			return fmt.Errorf("failed to delete client: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Client deleted: %s\n", client.Name)
		return nil
	},
}

func init() {
	clientsCmd.AddCommand(clientsListCmd)
	clientsCmd.AddCommand(clientsAddCmd)
	clientsCmd.AddCommand(clientsEditCmd)
	clientsCmd.AddCommand(clientsShowCmd)
	clientsCmd.AddCommand(clientsDeleteCmd)

	for _, f := range clientFlags {
		clientsAddCmd.Flags().String(f.name, "", f.usage)
		clientsEditCmd.Flags().String(f.name, "", "New "+f.usage)
	}
	clientsEditCmd.Flags().String("name", "", "New name")

	clientsDeleteCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
