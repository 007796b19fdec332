package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Category groups products. Subcategories and Items are free-form suggestions.
type Category struct {
	Subcategories []string `json:"subcategories"`
	Items         []string `json:"items"`
}

// DefaultCategories seeds a fresh catalog.
func DefaultCategories() map[string]Category {
	return map[string]Category{
		"Electronics": {
			Subcategories: []string{"Mobile", "Laptop", "Smart Watch"},
			Items:         []string{"iPhone 15", "Dell XPS", "Samsung Galaxy Watch"},
		},
		"Groceries": {
			Subcategories: []string{"Grains", "Snacks", "Oils"},
			Items:         []string{"Rice", "Chips", "Sunflower Oil"},
		},
		"Clothing": {
			Subcategories: []string{"Men", "Women", "Kids"},
			Items:         []string{"T-Shirt", "Jeans", "Jacket"},
		},
	}
}

// Product is a locally stored catalog entry.
type Product struct {
	ID          int64           `json:"id"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	Name        string          `json:"name"`
	BuyPrice    decimal.Decimal `json:"buyPrice"`
	SellPrice   decimal.Decimal `json:"sellPrice"`
	Stock       int             `json:"stock"`
	Profit      decimal.Decimal `json:"profit"`
}

// NewProduct builds a product and derives its per-unit profit
func NewProduct(category, subcategory, name string, buy, sell decimal.Decimal, stock int) *Product {
	return &Product{
		Category:    strings.TrimSpace(category),
		Subcategory: strings.TrimSpace(subcategory),
		Name:        strings.TrimSpace(name),
		BuyPrice:    buy,
		SellPrice:   sell,
		Stock:       stock,
		Profit:      sell.Sub(buy),
	}
}

// Validate checks the required fields. Category membership is checked by
// the catalog, which owns the category dictionary.
func (p *Product) Validate() error {
	if p.Category == "" {
		return NewValidationError("category", "category is required")
	}
	if p.Name == "" {
		return NewValidationError("name", "product name is required")
	}
	if p.BuyPrice.IsNegative() {
		return NewValidationError("buyPrice", "buying price cannot be negative")
	}
	if p.SellPrice.IsNegative() {
		return NewValidationError("sellPrice", "selling price cannot be negative")
	}
	if p.Stock < 0 {
		return NewValidationError("stock", "stock cannot be negative")
	}
	return nil
}
