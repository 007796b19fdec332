package cli

import (
	"fmt"
	"strconv"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/local"
	"github.com/spf13/cobra"
)

var customersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Manage the local customer book",
	Long: `The customer book is kept on this machine only, separate from clients.
Customers are addressed by their number in the list.`,
}

// parseCustomerNumber converts a 1-based list number to an index
func parseCustomerNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid customer number %q", s)
	}
	return n - 1, nil
}

var customersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customers",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, _ := cmd.Flags().GetString("search")
		hits := appInstance.Customers.Search(q)

		out := cmd.OutOrStdout()
		if len(hits) == 0 {
			fmt.Fprintln(out, "No customers found")
			return nil
		}

		fmt.Fprintf(out, "%-4s %-24s %-28s %-16s %-16s\n", "#", "Name", "Email", "Phone", "GST")
		fmt.Fprintln(out, "------------------------------------------------------------------------------------------")
		for _, hit := range hits {
			c := hit.Customer
			fmt.Fprintf(out, "%-4d %-24s %-28s %-16s %-16s\n",
				hit.Index+1,
				truncate(c.Name, 24),
				truncate(c.Email, 28),
				truncate(c.Phone, 16),
				truncate(c.GSTNumber, 16),
			)
		}
		fmt.Fprintf(out, "\nTotal: %d of %d customer(s)\n", len(hits), appInstance.Customers.Len())
		return nil
	},
}

func applyCustomerFlags(cmd *cobra.Command, c *domain.Customer) {
	fields := map[string]*string{
		"name":    &c.Name,
		"email":   &c.Email,
		"phone":   &c.Phone,
		"address": &c.Address,
		"gst":     &c.GSTNumber,
	}
	for name, field := range fields {
		if cmd.Flags().Lookup(name) != nil && cmd.Flags().Changed(name) {
			*field, _ = cmd.Flags().GetString(name)
		}
	}
}

var customersAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a customer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := domain.Customer{Name: args[0]}
		applyCustomerFlags(cmd, &c)

		index, err := appInstance.Customers.Add(c)
		if err != nil {
			return fmt.Errorf("failed to add customer: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Customer #%d added: %s\n", index+1, c.Name)
		return nil
	},
}

var customersEditCmd = &cobra.Command{
	Use:   "edit [number]",
	Short: "Edit a customer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseCustomerNumber(args[0])
		if err != nil {
			return err
		}

		customers := appInstance.Customers.List()
		if index >= len(customers) {
			return fmt.Errorf("customer #%d: %w", index+1, local.ErrIndexOutOfRange)
		}
		c := customers[index]
		applyCustomerFlags(cmd, &c)

		if err := appInstance.Customers.Update(index, c); err != nil {
			return fmt.Errorf("failed to update customer: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Customer #%d updated\n", index+1)
		return nil
	},
}

var customersDeleteCmd = &cobra.Command{
	Use:   "delete [number]",
	Short: "Delete a customer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseCustomerNumber(args[0])
		if err != nil {
			return err
		}
		if err := appInstance.Customers.Delete(index); err != nil {
			return fmt.Errorf("failed to delete customer: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Customer #%d deleted\n", index+1)
		return nil
	},
}

func init() {
	customersCmd.AddCommand(customersListCmd)
	customersCmd.AddCommand(customersAddCmd)
	customersCmd.AddCommand(customersEditCmd)
	customersCmd.AddCommand(customersDeleteCmd)

	customersListCmd.Flags().StringP("search", "s", "", "Filter by name, email or phone")

	for _, cmd := range []*cobra.Command{customersAddCmd, customersEditCmd} {
		cmd.Flags().String("email", "", "Email address (required)")
		cmd.Flags().String("phone", "", "Phone number (required)")
		cmd.Flags().String("address", "", "Postal address")
		cmd.Flags().String("gst", "", "GST number")
	}
	customersEditCmd.Flags().String("name", "", "New name")
}
