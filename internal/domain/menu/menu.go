package menu

import (
	"strings"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no catalog item matches the requested name.
var ErrNotFound = errors.New("menu item not found")

// Category groups catalog items for display and promotion eligibility.
type Category string

const (
	Food  Category = "food"
	Drink Category = "drink"
)

// ParseCategory maps user input ("food", "drink", "1", "2") to a Category.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "food", "1":
		return Food, true
	case "drink", "2":
		return Drink, true
	default:
		return "", false
	}
}

// Item is an immutable purchasable menu entry. Prices are whole currency units.
type Item struct {
	Name      string
	UnitPrice int64
	Category  Category
}

// IsDrink reports whether the item counts towards the drink promotion.
func (i Item) IsDrink() bool {
	return i.Category == Drink
}

// Catalog is the fixed list of items offered by the restaurant. It is built
// once at startup and never mutated.
type Catalog struct {
	items  []Item
	byName map[string]int
}

// NewCatalog builds a catalog preserving the given order. Names are matched
// case-insensitively, so two items differing only in case are rejected.
func NewCatalog(items ...Item) (*Catalog, error) {
	c := &Catalog{
		items:  make([]Item, 0, len(items)),
		byName: make(map[string]int, len(items)),
	}
	for _, it := range items {
		key := normalize(it.Name)
		if key == "" {
			return nil, errors.New("menu item name is empty")
		}
		if it.UnitPrice < 0 {
			return nil, errors.Errorf("menu item %q has negative price", it.Name)
		}
		if _, dup := c.byName[key]; dup {
			return nil, errors.Errorf("duplicate menu item %q", it.Name)
		}
		c.byName[key] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, nil
}

// Default returns the K-Delights catalog: four foods and four drinks.
func Default() *Catalog {
	c, err := NewCatalog(
		Item{Name: "Bibimbap", UnitPrice: 30_000, Category: Food},
		Item{Name: "Kimchi", UnitPrice: 12_000, Category: Food},
		Item{Name: "Tteokbokki", UnitPrice: 25_000, Category: Food},
		Item{Name: "Bulgogi", UnitPrice: 35_000, Category: Food},
		Item{Name: "Soju", UnitPrice: 35_000, Category: Drink},
		Item{Name: "Makgeolli", UnitPrice: 30_000, Category: Drink},
		Item{Name: "Sikhye", UnitPrice: 15_000, Category: Drink},
		Item{Name: "Omija Tea", UnitPrice: 20_000, Category: Drink},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// List returns the items of the given category in catalog order.
func (c *Catalog) List(cat Category) []Item {
	var out []Item
	for _, it := range c.items {
		if it.Category == cat {
			out = append(out, it)
		}
	}
	return out
}

// All returns every item in catalog order.
func (c *Catalog) All() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// FindByName looks up an item by exact, case-insensitive name.
func (c *Catalog) FindByName(name string) (Item, error) {
	i, ok := c.byName[normalize(name)]
	if !ok {
		return Item{}, ErrNotFound
	}
	return c.items[i], nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
