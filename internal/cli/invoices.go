package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/export"
	"github.com/andy/invoicer/internal/format"
	"github.com/andy/invoicer/internal/service"
	"github.com/spf13/cobra"
)

var invoicesCmd = &cobra.Command{
	Use:               "invoices",
	Short:             "Manage invoices",
	Long:              `Create, list, export, and track the status of invoices.`,
	PersistentPreRunE: signedIn,
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		statusStr, _ := cmd.Flags().GetString("status")
		filter, err := domain.ParseStatusFilter(statusStr)
		if err != nil {
			return err
		}

		invoices, err := appInstance.InvoiceService.ListInvoices(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(invoices) == 0 {
			fmt.Fprintln(out, "No invoices found")
			return nil
		}

		fmt.Fprintf(out, "%-9s %-15s %-22s %-13s %-13s %13s %-10s\n", "ID", "Number", "Client", "Issued", "Due", "Total", "Status")
		fmt.Fprintln(out, strings.Repeat("-", 101))

		for _, invoice := range invoices {
			clientName := "(unknown client)"
			if invoice.Client != nil {
				clientName = invoice.Client.Name
			}
			fmt.Fprintf(out, "%-9s %-15s %-22s %-13s %-13s %13s %-10s\n",
				shortID(invoice.ID),
				truncate(invoice.InvoiceNumber, 15),
				truncate(clientName, 22),
				displayDate(invoice.IssueDate),
				format.DatePtr(invoice.DueDate, appInstance.Config.Invoice.DateLayout),
				money(invoice.Total),
				invoice.Status.Label(),
			)
		}

		fmt.Fprintf(out, "\nTotal: %d invoice(s) (%s)\n", len(invoices), filter.Label())
		return nil
	},
}

var invoicesCreateCmd = &cobra.Command{
	Use:   "create [client_id_or_name]",
	Short: "Create an invoice",
	Long: `Create an invoice for a client. Line items are given as
description:quantity:rate, e.g.

  invoicer invoices create ACME --item "Design:10:85" --item "Hosting:1:25"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := appInstance.Config.Invoice

		client, err := resolveClient(ctx, args[0])
		if err != nil {
			return err
		}

		itemArgs, _ := cmd.Flags().GetStringArray("item")
		lines := make([]domain.LineInput, 0, len(itemArgs))
		for _, s := range itemArgs {
			line, err := parseItem(s)
			if err != nil {
				return err
			}
			lines = append(lines, line)
		}

		issueStr, _ := cmd.Flags().GetString("issue")
		issue, err := parseDate(issueStr)
		if err != nil {
			return fmt.Errorf("invalid issue date: %w", err)
		}

		due := issue.AddDate(0, 0, cfg.DefaultDueDays)
		if cmd.Flags().Changed("due") {
			dueStr, _ := cmd.Flags().GetString("due")
			if due, err = parseDate(dueStr); err != nil {
				return fmt.Errorf("invalid due date: %w", err)
			}
		}

		taxRate := cfg.DefaultTaxRate
		if cmd.Flags().Changed("tax") {
			taxRate, _ = cmd.Flags().GetFloat64("tax")
		}

		in := service.CreateInvoiceInput{
			ClientID:  client.ID,
			IssueDate: issue,
			DueDate:   &due,
			TaxRate:   taxRate,
			Lines:     lines,
		}
		in.InvoiceNumber, _ = cmd.Flags().GetString("number")
		in.Notes, _ = cmd.Flags().GetString("notes")
		if statusStr, _ := cmd.Flags().GetString("status"); statusStr != "" {
			if in.Status, err = domain.ParseInvoiceStatus(statusStr); err != nil {
				return err
			}
		}

		invoice, err := appInstance.InvoiceService.CreateInvoice(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Invoice created: %s (ID: %s)\n", invoice.InvoiceNumber, invoice.ID)
		fmt.Fprintf(out, "  Client: %s\n", client.Name)
		fmt.Fprintf(out, "  Subtotal: %s\n", money(invoice.Subtotal))
		fmt.Fprintf(out, "  Tax (%s): %s\n", format.Percent(invoice.TaxRate), money(invoice.TaxAmount))
		fmt.Fprintf(out, "  Total: %s\n", money(invoice.Total))
		return nil
	},
}

var invoicesShowCmd = &cobra.Command{
	Use:   "show [id_or_number]",
	Short: "Show invoice details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := resolveInvoiceID(ctx, args[0])
		if err != nil {
			return err
		}

		invoice, err := appInstance.InvoiceService.GetInvoice(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get invoice: %w", err)
		}

		printInvoice(cmd.OutOrStdout(), invoice)
		return nil
	},
}

func printInvoice(out io.Writer, invoice *domain.Invoice) {
	clientName := "(unknown client)"
	if invoice.Client != nil {
		clientName = invoice.Client.Name
	}

	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintf(out, "Invoice: %s\n", invoice.InvoiceNumber)
	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintf(out, "Client: %s\n", clientName)
	fmt.Fprintf(out, "Issued: %s\n", displayDate(invoice.IssueDate))
	fmt.Fprintf(out, "Due:    %s\n", format.DatePtr(invoice.DueDate, appInstance.Config.Invoice.DateLayout))
	fmt.Fprintf(out, "Status: %s\n", invoice.Status.Label())
	fmt.Fprintln(out)

	if len(invoice.Items) > 0 {
		fmt.Fprintln(out, "Line Items:")
		fmt.Fprintln(out, strings.Repeat("-", 80))
		fmt.Fprintf(out, "%-44s %8s %12s %13s\n", "Description", "Qty", "Rate", "Amount")
		fmt.Fprintln(out, strings.Repeat("-", 80))

		for _, item := range invoice.Items {
			fmt.Fprintf(out, "%-44s %8s %12s %13s\n",
				truncate(item.Description, 44),
				format.Number(item.Quantity),
				money(item.Rate),
				money(item.Amount),
			)
		}
		fmt.Fprintln(out, strings.Repeat("-", 80))
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Subtotal: %s\n", money(invoice.Subtotal))
	fmt.Fprintf(out, "Tax (%s): %s\n", format.Percent(invoice.TaxRate), money(invoice.TaxAmount))
	fmt.Fprintf(out, "Total: %s\n", money(invoice.Total))
	if invoice.Notes != "" {
		fmt.Fprintf(out, "\nNotes: %s\n", invoice.Notes)
	}
	fmt.Fprintln(out, strings.Repeat("=", 80))
}

var invoicesStatusCmd = &cobra.Command{
	Use:   "status [id_or_number] [status]",
	Short: "Set the status of an invoice (draft, sent, paid, overdue, cancelled)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := resolveInvoiceID(ctx, args[0])
		if err != nil {
			return err
		}
		status, err := domain.ParseInvoiceStatus(args[1])
		if err != nil {
			return err
		}

		invoice, err := appInstance.InvoiceService.UpdateStatus(ctx, id, status)
		if err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Invoice %s marked as %s\n", invoice.InvoiceNumber, invoice.Status)
		return nil
	},
}

var invoicesDeleteCmd = &cobra.Command{
	Use:   "delete [id_or_number]",
	Short: "Delete an invoice and its line items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := resolveInvoiceID(ctx, args[0])
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirmPrompt(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete invoice %s?", args[0])) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}

		if err := appInstance.InvoiceService.DeleteInvoice(ctx, id); err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Invoice %s deleted\n", args[0])
		return nil
	},
}

var invoicesExportCmd = &cobra.Command{
	Use:   "export [id_or_number]",
	Short: "Export an invoice as PDF or text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := resolveInvoiceID(ctx, args[0])
		if err != nil {
			return err
		}

		formatStr, _ := cmd.Flags().GetString("format")
		f, err := export.ParseFormat(formatStr)
		if err != nil {
			return err
		}

		invoice, err := appInstance.InvoiceService.GetInvoice(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get invoice: %w", err)
		}

		if toStdout, _ := cmd.Flags().GetBool("stdout"); toStdout {
			return appInstance.Exporter.Write(cmd.OutOrStdout(), invoice, f)
		}

		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = appInstance.Config.Invoice.OutputDir
		}
		path, err := appInstance.Exporter.WriteFile(dir, invoice, f)
		if err != nil {
			return fmt.Errorf("failed to export invoice: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %s to %s\n", invoice.InvoiceNumber, path)
		return nil
	},
}

var invoicesCheckOverdueCmd = &cobra.Command{
	Use:   "check-overdue",
	Short: "Mark sent invoices past their due date as overdue",
	RunE: func(cmd *cobra.Command, args []string) error {
		updated, err := appInstance.InvoiceService.MarkOverdue(cmd.Context(), time.Now())

		out := cmd.OutOrStdout()
		for _, invoice := range updated {
			fmt.Fprintf(out, "✓ %s is now overdue (due %s)\n", invoice.InvoiceNumber,
				format.DatePtr(invoice.DueDate, appInstance.Config.Invoice.DateLayout))
		}
		if err != nil {
			return fmt.Errorf("overdue check incomplete: %w", err)
		}
		if len(updated) == 0 {
			fmt.Fprintln(out, "No overdue invoices")
		}
		return nil
	},
}

var invoicesNextNumberCmd = &cobra.Command{
	Use:   "next-number",
	Short: "Print the next invoice number",
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _ := cmd.Flags().GetInt("year")
		if year == 0 {
			year = time.Now().Year()
		}
		number, err := appInstance.InvoiceService.NextInvoiceNumber(cmd.Context(), year)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), number)
		return nil
	},
}

var invoicesSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show totals by status and paid revenue by month",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		summary, err := appInstance.ReportService.GetSummary(ctx)
		if err != nil {
			return fmt.Errorf("failed to build summary: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Invoices: %d\n", summary.Count)
		for _, st := range domain.InvoiceStatuses {
			fmt.Fprintf(out, "  %-10s %d\n", st.Label(), summary.ByStatus[st])
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Outstanding: %s\n", money(summary.Outstanding))
		fmt.Fprintf(out, "Overdue:     %s\n", money(summary.Overdue))
		fmt.Fprintf(out, "Paid:        %s\n", money(summary.Paid))

		year, _ := cmd.Flags().GetInt("year")
		if year == 0 {
			year = time.Now().Year()
		}
		revenue, err := appInstance.ReportService.GetRevenueByMonth(ctx, year)
		if err != nil {
			return fmt.Errorf("failed to compute revenue: %w", err)
		}

		fmt.Fprintf(out, "\nPaid revenue %d:\n", year)
		for m := time.January; m <= time.December; m++ {
			fmt.Fprintf(out, "  %s %13s\n", m.String()[:3], money(revenue[m]))
		}
		return nil
	},
}

func init() {
	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesCreateCmd)
	invoicesCmd.AddCommand(invoicesShowCmd)
	invoicesCmd.AddCommand(invoicesStatusCmd)
	invoicesCmd.AddCommand(invoicesDeleteCmd)
	invoicesCmd.AddCommand(invoicesExportCmd)
	invoicesCmd.AddCommand(invoicesCheckOverdueCmd)
	invoicesCmd.AddCommand(invoicesNextNumberCmd)
	invoicesCmd.AddCommand(invoicesSummaryCmd)

	// List flags
	invoicesListCmd.Flags().String("status", "all", "Filter by status (all, draft, sent, paid, overdue, cancelled)")

	// Create flags
	invoicesCreateCmd.Flags().StringArray("item", nil, "Line item as description:quantity:rate (repeatable, required)")
	invoicesCreateCmd.Flags().String("number", "", "Invoice number (defaults to the next PREFIX-YEAR-NNN)")
	invoicesCreateCmd.Flags().String("issue", "today", "Issue date (YYYY-MM-DD)")
	invoicesCreateCmd.Flags().String("due", "", "Due date (defaults to issue date + configured due days)")
	invoicesCreateCmd.Flags().Float64("tax", 0, "Tax rate in percent (defaults to config)")
	invoicesCreateCmd.Flags().String("notes", "", "Notes printed on the invoice")
	invoicesCreateCmd.Flags().String("status", "", "Initial status (defaults to draft)")
	invoicesCreateCmd.MarkFlagRequired("item")

	// Delete flags
	invoicesDeleteCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	// Export flags
	invoicesExportCmd.Flags().String("format", "pdf", "Output format (pdf or txt)")
	invoicesExportCmd.Flags().String("dir", "", "Output directory (defaults to config)")
	invoicesExportCmd.Flags().Bool("stdout", false, "Write to standard output instead of a file")

	invoicesNextNumberCmd.Flags().Int("year", 0, "Invoice year (defaults to this year)")
	invoicesSummaryCmd.Flags().Int("year", 0, "Revenue year (defaults to this year)")
}
