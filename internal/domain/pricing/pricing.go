// Package pricing turns a cart snapshot into the amounts charged at checkout.
//
// The computation order is fixed: subtotal, drink promotion, tiered discount,
// coupon, tax, service fee, total. Rates are applied with exact decimal
// arithmetic and rounded half-up to whole currency units before the next
// step, so reordering changes results at the unit boundary.
package pricing

import (
	"math"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kdelights/internal/domain/cart"
)

// ErrAmountOverflow is returned when a line total or the subtotal does not
// fit in int64.
var ErrAmountOverflow = errors.New("order amount overflows")

// Rules holds the pricing constants. Build it once at startup and pass it to
// NewEngine.
type Rules struct {
	// PromoThreshold is the subtotal that must be exceeded, together with at
	// least one drink in the cart, to earn a free drink.
	PromoThreshold int64
	// DiscountThreshold is the subtotal that must be exceeded for the tiered
	// discount.
	DiscountThreshold int64
	DiscountRate      decimal.Decimal
	TaxRate           decimal.Decimal
	ServiceFee        int64
	// FreeDrinkPromo credits the free drink's unit price. When false the
	// promotion is only annotated on the receipt.
	FreeDrinkPromo bool
}

// PercentRate converts a whole percentage to a rate, e.g. 10 -> 0.10.
func PercentRate(percent int64) decimal.Decimal {
	return decimal.New(percent, -2)
}

// DefaultRules returns the restaurant's standing rules.
func DefaultRules() Rules {
	return Rules{
		PromoThreshold:    50_000,
		DiscountThreshold: 100_000,
		DiscountRate:      PercentRate(10),
		TaxRate:           PercentRate(10),
		ServiceFee:        20_000,
	}
}

// Coupon is a resolved coupon to apply to the order.
type Coupon struct {
	Code  string
	Value int64
}

// Line is a priced cart line. Promo marks the line that earned the free unit.
type Line struct {
	cart.Line
	Total int64
	Promo bool
}

// Breakdown is the derived, never stored, price of an order.
type Breakdown struct {
	Lines []Line
	// PromoItem names the drink given free, empty when the promotion did not
	// apply.
	PromoItem string
	// PromoCredit is non-zero only when Rules.FreeDrinkPromo is set.
	PromoCredit   int64
	Subtotal      int64
	Discount      int64
	AfterDiscount int64
	// Coupon is the coupon that was applied, if any. Its Value is the stored
	// coupon value even when it exceeded the remaining amount.
	Coupon     *Coupon
	Tax        int64
	ServiceFee int64
	Total      int64
}

// PromoApplied reports whether a free drink was earned.
func (b Breakdown) PromoApplied() bool {
	return b.PromoItem != ""
}

// Engine applies Rules to carts. It holds no mutable state.
type Engine struct {
	rules Rules
}

// NewEngine returns an Engine for the given rules.
func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules}
}

// Rules returns the engine configuration.
func (e *Engine) Rules() Rules {
	return e.rules
}

// Price computes the breakdown for lines with an optional coupon. The
// subtotal is the exact sum of unit price times quantity; lines whose amounts
// would overflow are rejected with ErrAmountOverflow.
func (e *Engine) Price(lines []cart.Line, c *Coupon) (Breakdown, error) {
	b := Breakdown{
		Lines:      make([]Line, len(lines)),
		ServiceFee: e.rules.ServiceFee,
	}

	hasDrink := false
	for i, l := range lines {
		total, ok := lineTotal(l)
		if !ok || total > math.MaxInt64-b.Subtotal {
			return Breakdown{}, errors.Wrapf(ErrAmountOverflow, "line %d (%s x%d)", i, l.Item.Name, l.Quantity)
		}
		b.Lines[i] = Line{Line: l, Total: total}
		b.Subtotal += total
		if l.Item.IsDrink() {
			hasDrink = true
		}
	}

	promoUnitPrice := int64(0)
	if b.Subtotal > e.rules.PromoThreshold && hasDrink {
		for i := range b.Lines {
			if b.Lines[i].Item.IsDrink() && b.Lines[i].Quantity >= 1 {
				b.Lines[i].Promo = true
				b.PromoItem = b.Lines[i].Item.Name
				promoUnitPrice = b.Lines[i].Item.UnitPrice
				break
			}
		}
	}

	if b.Subtotal > e.rules.DiscountThreshold {
		b.Discount = applyRate(b.Subtotal, e.rules.DiscountRate)
	}
	b.AfterDiscount = b.Subtotal - b.Discount

	if e.rules.FreeDrinkPromo && promoUnitPrice > 0 {
		b.PromoCredit = min(promoUnitPrice, b.AfterDiscount)
		b.AfterDiscount -= b.PromoCredit
	}

	if c != nil {
		applied := *c
		b.Coupon = &applied
		b.AfterDiscount = floorAtZero(b.AfterDiscount - c.Value)
	}

	b.Tax = applyRate(b.AfterDiscount, e.rules.TaxRate)
	total := decimal.NewFromInt(b.AfterDiscount).Add(decimal.NewFromInt(b.Tax)).Add(decimal.NewFromInt(b.ServiceFee))
	if total.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return Breakdown{}, errors.Wrap(ErrAmountOverflow, "total")
	}
	b.Total = total.IntPart()

	return b, nil
}

// lineTotal returns unit price times quantity, or false if it overflows.
func lineTotal(l cart.Line) (int64, bool) {
	if l.Quantity < 0 || l.Item.UnitPrice < 0 {
		return 0, false
	}
	if l.Quantity > 0 && l.Item.UnitPrice > math.MaxInt64/int64(l.Quantity) {
		return 0, false
	}
	return l.Total(), true
}

// applyRate returns amount*rate rounded half-up to a whole unit.
func applyRate(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
}

func floorAtZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
