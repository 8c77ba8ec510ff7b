package menu

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyMenu   = errors.New("menu has no items")
	ErrInvalidItem = errors.New("invalid menu item")
	ErrDuplicateID = errors.New("duplicate menu item id")
)

//go:embed default_menu.json
var defaultMenu []byte

// Catalog is the read-only menu loaded once at startup.
type Catalog struct {
	items []Item
	byID  map[string]int
}

func NewCatalog(items []Item) (*Catalog, error) {
	if len(items) == 0 {
		return nil, ErrEmptyMenu
	}

	c := &Catalog{
		items: make([]Item, 0, len(items)),
		byID:  make(map[string]int, len(items)),
	}
	for _, it := range items {
		it.ID = strings.TrimSpace(it.ID)
		if it.ID == "" {
			return nil, fmt.Errorf("%w: missing id", ErrInvalidItem)
		}
		if it.Price.IsNegative() {
			return nil, fmt.Errorf("%w: negative price for %q", ErrInvalidItem, it.ID)
		}
		if _, ok := c.byID[it.ID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, it.ID)
		}
		if it.Name == "" {
			it.Name = it.ID
		}
		c.byID[it.ID] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, nil
}

// Load parses a JSON array of menu items.
func Load(r io.Reader) (*Catalog, error) {
	var items []Item
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}
	return NewCatalog(items)
}

func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open menu file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the menu shipped with the service.
func Default() *Catalog {
	c, err := Load(bytes.NewReader(defaultMenu))
	if err != nil {
		panic(fmt.Sprintf("embedded menu is invalid: %v", err))
	}
	return c
}

// Items returns the menu in configuration order.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Lookup(id string) (Item, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

func (c *Catalog) Price(id string) (decimal.Decimal, bool) {
	it, ok := c.Lookup(id)
	return it.Price, ok
}
