package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/domain"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

type productMode int

const (
	productModeList productMode = iota
	productModeSearch
	productModeForm
	productModeCategory
)

// product form positions; category is a selector
const (
	prodFieldCategory = iota
	prodFieldSubcategory
	prodFieldName
	prodFieldBuy
	prodFieldSell
	prodFieldStock
	prodFieldCount
)

var productLabels = []string{"Category:", "Subcategory:", "Name:", "Buying price:", "Selling price:", "Stock:"}

// ProductsModel manages the local product catalog
type ProductsModel struct {
	app  *app.App
	mode productMode

	search   textinput.Model
	products []domain.Product
	cursor   int
	notice   string
	status   string

	categories  []string
	categoryIdx int
	fields      []textinput.Model
	fieldFocus  int

	newCategory textinput.Model
}

// NewProductsModel creates the products screen
func NewProductsModel(a *app.App) tea.Model {
	m := &ProductsModel{
		app:         a,
		search:      newInput("product name", 60, 30),
		newCategory: newInput("Category name", 60, 30),
	}
	m.refresh()
	return m
}

// IsCapturingInput returns true outside the plain list
func (m *ProductsModel) IsCapturingInput() bool {
	return m.mode != productModeList
}

func (m *ProductsModel) Init() tea.Cmd {
	return nil
}

func (m *ProductsModel) refresh() {
	m.products = m.app.Catalog.Search(m.search.Value())
	if m.cursor >= len(m.products) {
		m.cursor = max(0, len(m.products)-1)
	}
}

func (m *ProductsModel) openForm() tea.Cmd {
	m.categories = m.app.Catalog.CategoryNames()
	m.categoryIdx = 0

	m.fields = make([]textinput.Model, prodFieldCount)
	m.fields[prodFieldSubcategory] = newInput("Optional", 60, 30)
	m.fields[prodFieldName] = newInput("Product name", 100, 40)
	m.fields[prodFieldBuy] = newInput("0.00", 12, 12)
	m.fields[prodFieldSell] = newInput("0.00", 12, 12)
	m.fields[prodFieldStock] = newInput("0", 8, 8)
	m.suggestSubcategory()

	m.mode = productModeForm
	m.notice = ""
	m.fieldFocus = prodFieldCategory
	return nil
}

// suggestSubcategory shows the selected category's subcategories as the
// placeholder
func (m *ProductsModel) suggestSubcategory() {
	if len(m.categories) == 0 {
		return
	}
	cat, _ := m.app.Catalog.Category(m.categories[m.categoryIdx])
	if len(cat.Subcategories) > 0 {
		m.fields[prodFieldSubcategory].Placeholder = strings.Join(cat.Subcategories, ", ")
	} else {
		m.fields[prodFieldSubcategory].Placeholder = "Optional"
	}
}

func (m *ProductsModel) focusField(i int) tea.Cmd {
	if m.fieldFocus != prodFieldCategory {
		m.fields[m.fieldFocus].Blur()
	}
	m.fieldFocus = (i + prodFieldCount) % prodFieldCount
	if m.fieldFocus == prodFieldCategory {
		return nil
	}
	return m.fields[m.fieldFocus].Focus()
}

func parsePrice(label, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, domain.NewValidationError(label, label+" is required.")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, domain.NewValidationError(label, fmt.Sprintf("%s %q is not a number.", label, s))
	}
	return d, nil
}

func (m *ProductsModel) save() {
	if len(m.categories) == 0 {
		m.notice = "Add a category first (press esc, then a)."
		return
	}

	buy, err := parsePrice("Buying price", m.fields[prodFieldBuy].Value())
	if err != nil {
		m.notice = userNotice(m.app.Logger, err, "Please check the form.")
		return
	}
	sell, err := parsePrice("Selling price", m.fields[prodFieldSell].Value())
	if err != nil {
		m.notice = userNotice(m.app.Logger, err, "Please check the form.")
		return
	}
	stockStr := strings.TrimSpace(m.fields[prodFieldStock].Value())
	stock, err := strconv.Atoi(stockStr)
	if err != nil {
		m.notice = "Stock must be a whole number."
		return
	}

	p := domain.NewProduct(m.categories[m.categoryIdx], m.fields[prodFieldSubcategory].Value(),
		m.fields[prodFieldName].Value(), buy, sell, stock)
	added, err := m.app.Catalog.AddProduct(*p)
	if err != nil {
		m.notice = userNotice(m.app.Logger, err, "Could not save the product.")
		return
	}

	m.mode = productModeList
	m.status = fmt.Sprintf("Added %s (profit %s per unit)", added.Name, formatMoney(m.app, added.Profit.InexactFloat64()))
	m.refresh()
}

func (m *ProductsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(RefreshDataMsg); ok {
		m.refresh()
		return m, nil
	}

	switch m.mode {
	case productModeSearch:
		return m.updateSearch(msg)
	case productModeForm:
		return m.updateForm(msg)
	case productModeCategory:
		return m.updateCategory(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	m.status = ""
	m.notice = ""
	switch {
	case key.Matches(keyMsg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, DefaultKeyMap.Down):
		if m.cursor < len(m.products)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, DefaultKeyMap.Search):
		m.mode = productModeSearch
		return m, m.search.Focus()
	case key.Matches(keyMsg, DefaultKeyMap.New):
		return m, m.openForm()
	case keyMsg.String() == "a":
		m.mode = productModeCategory
		m.newCategory.SetValue("")
		return m, m.newCategory.Focus()
	case key.Matches(keyMsg, DefaultKeyMap.Back):
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.refresh()
		}
	}
	return m, nil
}

func (m *ProductsModel) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter", "esc":
			if keyMsg.String() == "esc" {
				m.search.SetValue("")
			}
			m.search.Blur()
			m.mode = productModeList
			m.refresh()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.cursor = 0
	m.refresh()
	return m, cmd
}

func (m *ProductsModel) updateCategory(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.newCategory.Blur()
			m.mode = productModeList
			m.notice = ""
			return m, nil
		case "enter":
			name, err := m.app.Catalog.AddCategory(m.newCategory.Value())
			if err != nil {
				m.notice = userNotice(m.app.Logger, err, "Could not add the category.")
				return m, nil
			}
			m.newCategory.Blur()
			m.mode = productModeList
			m.status = "Category available: " + name
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.newCategory, cmd = m.newCategory.Update(msg)
	return m, cmd
}

func (m *ProductsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.mode = productModeList
			m.notice = ""
			return m, nil
		case "tab", "down":
			return m, m.focusField(m.fieldFocus + 1)
		case "shift+tab", "up":
			return m, m.focusField(m.fieldFocus - 1)
		case "enter":
			if m.fieldFocus == prodFieldCount-1 {
				m.save()
				return m, nil
			}
			return m, m.focusField(m.fieldFocus + 1)
		case "ctrl+s":
			m.save()
			return m, nil
		case "left", "right":
			if m.fieldFocus == prodFieldCategory {
				delta := 1
				if keyMsg.String() == "left" {
					delta = -1
				}
				m.categoryIdx = cycle(m.categoryIdx, delta, len(m.categories))
				m.suggestSubcategory()
				return m, nil
			}
		}
	}

	if m.fieldFocus == prodFieldCategory {
		return m, nil
	}
	var cmd tea.Cmd
	m.fields[m.fieldFocus], cmd = m.fields[m.fieldFocus].Update(msg)
	return m, cmd
}

func (m *ProductsModel) View() string {
	switch m.mode {
	case productModeForm:
		return m.viewForm()
	case productModeCategory:
		s := titleStyle.Render("New Category") + "\n\n"
		s += "  " + m.newCategory.View() + "\n\n"
		s += renderNotice(m.notice)
		return s + helpStyle.Render("  enter: add  esc: cancel")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Products") + subtitleStyle.Render("  (stored on this computer)") + "\n\n")

	if m.mode == productModeSearch || m.search.Value() != "" {
		b.WriteString("  Search: " + m.search.View() + "\n\n")
	}
	b.WriteString(renderNotice(m.notice))
	b.WriteString(renderStatus(m.status))

	if len(m.products) == 0 {
		b.WriteString(subtitleStyle.Render("  No products found. Press 'n' to add one.") + "\n")
	} else {
		b.WriteString(boldStyle.Render(fmt.Sprintf("  %-22s %-14s %-12s %10s %10s %10s %6s",
			"Name", "Category", "Subcategory", "Buy", "Sell", "Profit", "Stock")) + "\n")
		for i, p := range m.products {
			line := fmt.Sprintf("%-22s %-14s %-12s %10s %10s %10s %6d",
				truncateStr(p.Name, 22),
				truncateStr(p.Category, 14),
				truncateStr(p.Subcategory, 12),
				formatMoney(m.app, p.BuyPrice.InexactFloat64()),
				formatMoney(m.app, p.SellPrice.InexactFloat64()),
				formatMoney(m.app, p.Profit.InexactFloat64()),
				p.Stock,
			)
			if i == m.cursor {
				b.WriteString(focusStyle.Render("> "+line) + "\n")
			} else {
				b.WriteString("  " + line + "\n")
			}
		}
	}

	b.WriteString("\n" + helpStyle.Render("  j/k: navigate  /: search  n: new product  a: add category"))
	return b.String()
}

func (m *ProductsModel) viewForm() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("New Product") + "\n\n")

	for i, label := range productLabels {
		indicator, labelStyle := "  ", subtitleStyle
		if i == m.fieldFocus {
			indicator, labelStyle = "> ", focusStyle
		}
		var value string
		if i == prodFieldCategory {
			value = subtitleStyle.Render("(none)")
			if len(m.categories) > 0 {
				value = "< " + m.categories[m.categoryIdx] + " >"
			}
		} else {
			value = m.fields[i].View()
		}
		fmt.Fprintf(&b, "%s%s\n  %s\n\n", indicator, labelStyle.Render(label), value)
	}

	b.WriteString(renderNotice(m.notice))
	b.WriteString(helpStyle.Render("  tab/shift+tab: fields  ←/→: category  ctrl+s: save  esc: cancel"))
	return b.String()
}
