package checkout

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/kdelights/internal/domain/pricing"
	"github.com/xenking/kdelights/internal/domain/wallet"
)

// ErrEmptyCart is returned when paying for a cart with no lines.
var ErrEmptyCart = errors.New("cart is empty")

// Outcome classifies a payment attempt for front ends.
type Outcome int

const (
	Failed Outcome = iota
	Paid
	WrongCredential
	InsufficientFunds
	InvalidWallet
	EmptyCart
	InvalidOrder
)

func (o Outcome) String() string {
	switch o {
	case Paid:
		return "paid"
	case WrongCredential:
		return "wrong_credential"
	case InsufficientFunds:
		return "insufficient_funds"
	case InvalidWallet:
		return "invalid_wallet"
	case EmptyCart:
		return "empty_cart"
	case InvalidOrder:
		return "invalid_order"
	default:
		return "failed"
	}
}

// OutcomeOf maps the error returned by Service.Pay to an Outcome. A nil error
// is Paid.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return Paid
	case errors.Is(err, wallet.ErrWrongCredential):
		return WrongCredential
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return InsufficientFunds
	case errors.Is(err, wallet.ErrNotFound):
		return InvalidWallet
	case errors.Is(err, ErrEmptyCart):
		return EmptyCart
	case errors.Is(err, pricing.ErrAmountOverflow):
		return InvalidOrder
	default:
		return Failed
	}
}

// PersistenceWarning reports a durable write that failed after the payment
// already completed. The debit is not rolled back.
type PersistenceWarning struct {
	// Op is "issue coupon", "write receipt" or "consume coupon".
	Op   string
	Path string
	Err  error
}

func (w *PersistenceWarning) Error() string {
	if w.Path == "" {
		return fmt.Sprintf("%s: %v", w.Op, w.Err)
	}
	return fmt.Sprintf("%s %s: %v", w.Op, w.Path, w.Err)
}

func (w *PersistenceWarning) Unwrap() error {
	return w.Err
}
