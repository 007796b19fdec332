package local

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/andy/invoicer/internal/domain"
)

// SlotProducts holds the category dictionary and the product list.
const SlotProducts = "products"

type catalogDoc struct {
	Categories map[string]domain.Category `json:"categories"`
	Products   []domain.Product           `json:"products"`
}

// Catalog is the local product list with its category dictionary.
type Catalog struct {
	mu     sync.Mutex
	slots  *Slots
	doc    catalogDoc
	now    func() time.Time
	lastID int64
}

// NewCatalog loads the products slot, seeding the default categories on
// first use
func NewCatalog(slots *Slots) (*Catalog, error) {
	var doc catalogDoc
	found, err := slots.Load(SlotProducts, &doc)
	if err != nil {
		return nil, err
	}
	if !found || doc.Categories == nil {
		doc.Categories = domain.DefaultCategories()
	}

	c := &Catalog{slots: slots, doc: doc, now: time.Now}
	for _, p := range doc.Products {
		if p.ID > c.lastID {
			c.lastID = p.ID
		}
	}
	return c, nil
}

// CategoryNames returns the category names sorted
func (c *Catalog) CategoryNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.doc.Categories))
	for name := range c.doc.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Category looks up a category by name
func (c *Catalog) Category(name string) (domain.Category, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cat, ok := c.doc.Categories[name]
	return cat, ok
}

// AddCategory adds an empty category and returns the trimmed name. Adding
// an existing category changes nothing.
func (c *Catalog) AddCategory(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.NewValidationError("category", "category name is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.doc.Categories[name]; ok {
		return name, nil
	}

	next := c.clone()
	next.Categories[name] = domain.Category{Subcategories: []string{}, Items: []string{}}
	if err := c.commit(next); err != nil {
		return "", err
	}
	return name, nil
}

// AddProduct validates p against the dictionary, assigns its id and profit
// and appends it
func (c *Catalog) AddProduct(p domain.Product) (domain.Product, error) {
	p = *domain.NewProduct(p.Category, p.Subcategory, p.Name, p.BuyPrice, p.SellPrice, p.Stock)
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.doc.Categories[p.Category]; !ok {
		return domain.Product{}, domain.NewValidationError("category", fmt.Sprintf("unknown category %q", p.Category))
	}

	p.ID = c.nextID()
	next := c.clone()
	next.Products = append(next.Products, p)
	if err := c.commit(next); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// Products returns a copy of all products in insertion order
func (c *Catalog) Products() []domain.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Product(nil), c.doc.Products...)
}

// Search returns products whose name contains q, ignoring case
func (c *Catalog) Search(q string) []domain.Product {
	lq := strings.ToLower(strings.TrimSpace(q))

	c.mu.Lock()
	defer c.mu.Unlock()

	var hits []domain.Product
	for _, p := range c.doc.Products {
		if strings.Contains(strings.ToLower(p.Name), lq) {
			hits = append(hits, p)
		}
	}
	return hits
}

// nextID is millisecond time, bumped past the last id when the clock has
// not moved on
func (c *Catalog) nextID() int64 {
	id := c.now().UnixMilli()
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id
	return id
}

func (c *Catalog) clone() catalogDoc {
	next := catalogDoc{
		Categories: make(map[string]domain.Category, len(c.doc.Categories)+1),
		Products:   append([]domain.Product(nil), c.doc.Products...),
	}
	for k, v := range c.doc.Categories {
		next.Categories[k] = v
	}
	return next
}

func (c *Catalog) commit(next catalogDoc) error {
	if err := c.slots.Save(SlotProducts, next); err != nil {
		return err
	}
	c.doc = next
	return nil
}
