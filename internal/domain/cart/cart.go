package cart

import (
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/kdelights/internal/domain/menu"
)

// Sentinel errors for cart mutation.
var (
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrLineNotFound    = errors.New("cart line not found")
)

// Cart bounds. Every line total and the subtotal stay far below the int64
// range, so pricing arithmetic never wraps.
const (
	MaxQuantity       = 10_000
	MaxSubtotal int64 = 1_000_000_000_000
)

// Line is a single (item, quantity) entry. A cart holds at most one line per
// item name.
type Line struct {
	Item     menu.Item
	Quantity int
}

// Total returns unit price times quantity.
func (l Line) Total() int64 {
	return l.Item.UnitPrice * int64(l.Quantity)
}

// Cart is the customer's pending order. It is not safe for concurrent use.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add appends a line for item, or increments the quantity of the existing
// line whose item name matches case-insensitively.
//
// The quantity must be in [1, MaxQuantity], the merged line quantity may not
// exceed MaxQuantity and the resulting subtotal may not exceed MaxSubtotal.
// A rejected Add leaves the cart unchanged.
func (c *Cart) Add(item menu.Item, qty int) error {
	if qty <= 0 || qty > MaxQuantity {
		return errors.Wrapf(ErrInvalidQuantity, "quantity %d not in [1, %d]", qty, MaxQuantity)
	}
	idx := -1
	for i := range c.lines {
		if strings.EqualFold(c.lines[i].Item.Name, item.Name) {
			idx = i
			break
		}
	}
	if idx >= 0 && c.lines[idx].Quantity+qty > MaxQuantity {
		return errors.Wrapf(ErrInvalidQuantity, "line quantity %d exceeds %d", c.lines[idx].Quantity+qty, MaxQuantity)
	}
	if item.UnitPrice > 0 && int64(qty) > (MaxSubtotal-c.subtotal())/item.UnitPrice {
		return errors.Wrapf(ErrInvalidQuantity, "subtotal would exceed %d", MaxSubtotal)
	}

	if idx >= 0 {
		c.lines[idx].Quantity += qty
		return nil
	}
	c.lines = append(c.lines, Line{Item: item, Quantity: qty})
	return nil
}

func (c *Cart) subtotal() int64 {
	var sum int64
	for _, l := range c.lines {
		sum += l.Total()
	}
	return sum
}

// Remove deletes the line at the zero-based index.
func (c *Cart) Remove(index int) error {
	if index < 0 || index >= len(c.lines) {
		return ErrLineNotFound
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	return nil
}

// Clear drops every line.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a snapshot of the cart in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}
