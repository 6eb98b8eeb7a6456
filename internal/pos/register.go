// Package pos is the front-end boundary of the register. Terminal and HTTP
// front ends drive a Register and never touch the domain packages' state
// directly.
package pos

import (
	"context"

	"go.uber.org/zap"

	"github.com/xenking/kdelights/internal/domain/cart"
	"github.com/xenking/kdelights/internal/domain/checkout"
	"github.com/xenking/kdelights/internal/domain/menu"
	"github.com/xenking/kdelights/internal/domain/wallet"
)

// Register is one customer session: a catalog, a cart, the wallets and the
// checkout service. It has no locking of its own; callers serialize calls.
type Register struct {
	catalog  *menu.Catalog
	wallets  *wallet.Ledger
	checkout *checkout.Service
	cart     *cart.Cart
	receipt  string
	lg       *zap.Logger
}

// NewRegister creates a Register with an empty cart.
func NewRegister(catalog *menu.Catalog, wallets *wallet.Ledger, svc *checkout.Service, lg *zap.Logger) *Register {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Register{
		catalog:  catalog,
		wallets:  wallets,
		checkout: svc,
		cart:     cart.New(),
		lg:       lg,
	}
}

// ListMenu returns the items of a category in catalog order. An empty
// category lists everything.
func (r *Register) ListMenu(c menu.Category) []menu.Item {
	if c == "" {
		return r.catalog.All()
	}
	return r.catalog.List(c)
}

// AddToCart adds qty of the named item, merging with an existing line.
func (r *Register) AddToCart(name string, qty int) (menu.Item, error) {
	item, err := r.catalog.FindByName(name)
	if err != nil {
		return menu.Item{}, err
	}
	if err := r.cart.Add(item, qty); err != nil {
		return menu.Item{}, err
	}
	return item, nil
}

// RemoveFromCart removes the line at the zero-based index.
func (r *Register) RemoveFromCart(index int) error {
	return r.cart.Remove(index)
}

// ClearCart empties the cart.
func (r *Register) ClearCart() {
	r.cart.Clear()
}

// Lines returns a snapshot of the cart.
func (r *Register) Lines() []cart.Line {
	return r.cart.Lines()
}

// PriceCart prices the current cart with an optional coupon code.
func (r *Register) PriceCart(couponCode string) (checkout.Quote, error) {
	return r.checkout.Quote(r.cart.Lines(), couponCode)
}

// ListWallets returns every wallet with its current balance.
func (r *Register) ListWallets() []wallet.Summary {
	return r.wallets.List()
}

// AttemptPayment pays for the cart from a wallet. On success the cart is
// cleared and the receipt becomes LastReceiptText. Failures change nothing.
func (r *Register) AttemptPayment(ctx context.Context, walletIndex int, secret, couponCode string) (*checkout.Result, error) {
	res, err := r.checkout.Pay(ctx, checkout.PayRequest{
		Lines:       r.cart.Lines(),
		WalletIndex: walletIndex,
		Secret:      secret,
		CouponCode:  couponCode,
	})
	if err != nil {
		r.lg.Debug("Payment declined",
			zap.Int("wallet", walletIndex),
			zap.Stringer("outcome", checkout.OutcomeOf(err)),
		)
		return nil, err
	}

	r.cart.Clear()
	r.receipt = res.Receipt
	r.lg.Info("Payment completed",
		zap.String("wallet", res.Wallet.Name),
		zap.Int64("total", res.Order.Total),
		zap.String("transaction_id", res.TransactionID),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res, nil
}

// LastReceiptText returns the receipt of the most recent payment in this
// session. ok is false before the first payment.
func (r *Register) LastReceiptText() (text string, ok bool) {
	return r.receipt, r.receipt != ""
}
