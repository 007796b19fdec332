package cli

import (
	"fmt"
	"strings"

	"github.com/andy/invoicer/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Manage the local product catalog",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, _ := cmd.Flags().GetString("search")
		products := appInstance.Catalog.Search(q)

		out := cmd.OutOrStdout()
		if len(products) == 0 {
			fmt.Fprintln(out, "No products found")
			return nil
		}

		fmt.Fprintf(out, "%-24s %-14s %-14s %11s %11s %11s %6s\n", "Name", "Category", "Subcategory", "Buy", "Sell", "Profit", "Stock")
		fmt.Fprintln(out, strings.Repeat("-", 97))
		for _, p := range products {
			fmt.Fprintf(out, "%-24s %-14s %-14s %11s %11s %11s %6d\n",
				truncate(p.Name, 24),
				truncate(p.Category, 14),
				truncate(p.Subcategory, 14),
				money(p.BuyPrice.InexactFloat64()),
				money(p.SellPrice.InexactFloat64()),
				money(p.Profit.InexactFloat64()),
				p.Stock,
			)
		}
		fmt.Fprintf(out, "\nTotal: %d product(s)\n", len(products))
		return nil
	},
}

var productsAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		subcategory, _ := cmd.Flags().GetString("subcategory")
		stock, _ := cmd.Flags().GetInt("stock")

		prices := make(map[string]decimal.Decimal, 2)
		for _, name := range []string{"buy", "sell"} {
			s, _ := cmd.Flags().GetString(name)
			d, err := decimal.NewFromString(strings.TrimSpace(s))
			if err != nil {
				return fmt.Errorf("invalid --%s price %q", name, s)
			}
			prices[name] = d
		}

		p := domain.NewProduct(category, subcategory, args[0], prices["buy"], prices["sell"], stock)
		added, err := appInstance.Catalog.AddProduct(*p)
		if err != nil {
			return fmt.Errorf("failed to add product: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Product added: %s (profit %s per unit)\n",
			added.Name, money(added.Profit.InexactFloat64()))
		return nil
	},
}

var productsCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List product categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, name := range appInstance.Catalog.CategoryNames() {
			cat, _ := appInstance.Catalog.Category(name)
			if len(cat.Subcategories) > 0 {
				fmt.Fprintf(out, "%s: %s\n", name, strings.Join(cat.Subcategories, ", "))
			} else {
				fmt.Fprintln(out, name)
			}
		}
		return nil
	},
}

var productsAddCategoryCmd = &cobra.Command{
	Use:   "add-category [name]",
	Short: "Add a product category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := appInstance.Catalog.AddCategory(args[0])
		if err != nil {
			return fmt.Errorf("failed to add category: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Category available: %s\n", name)
		return nil
	},
}

func init() {
	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsAddCmd)
	productsCmd.AddCommand(productsCategoriesCmd)
	productsCmd.AddCommand(productsAddCategoryCmd)

	productsListCmd.Flags().StringP("search", "s", "", "Filter by name or category")

	productsAddCmd.Flags().String("category", "", "Category (required, see 'products categories')")
	productsAddCmd.Flags().String("subcategory", "", "Subcategory")
	productsAddCmd.Flags().String("buy", "0", "Buying price")
	productsAddCmd.Flags().String("sell", "0", "Selling price")
	productsAddCmd.Flags().Int("stock", 0, "Units in stock")
	productsAddCmd.MarkFlagRequired("category")
}
