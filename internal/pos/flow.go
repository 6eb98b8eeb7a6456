package pos

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/kdelights/internal/domain/checkout"
)

// ErrInvalidState is returned when a Flow step is called out of order.
var ErrInvalidState = errors.New("invalid checkout state")

// State is a step of an interactive checkout.
type State int

const (
	Idle State = iota
	AwaitingCouponInput
	AwaitingWalletSelection
	AwaitingCredential
	// Retry follows a wrong credential: the customer may try again, pick
	// another wallet or cancel.
	Retry
	Paid
	Cancelled
)

var stateNames = [...]string{
	Idle:                    "idle",
	AwaitingCouponInput:     "awaiting_coupon_input",
	AwaitingWalletSelection: "awaiting_wallet_selection",
	AwaitingCredential:      "awaiting_credential",
	Retry:                   "retry",
	Paid:                    "paid",
	Cancelled:               "cancelled",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further steps are accepted.
func (s State) Terminal() bool {
	return s == Paid || s == Cancelled
}

// Flow walks one interactive checkout over a Register. Each step is valid only
// in specific states; the core payment is a single Register.AttemptPayment
// call per credential submission.
type Flow struct {
	reg    *Register
	state  State
	coupon string
	wallet int
	quote  checkout.Quote
	result *checkout.Result
}

// Checkout starts a Flow. It fails with checkout.ErrEmptyCart, without
// creating a flow, when the cart is empty.
func (r *Register) Checkout() (*Flow, error) {
	if r.cart.IsEmpty() {
		return nil, checkout.ErrEmptyCart
	}
	return &Flow{reg: r, state: AwaitingCouponInput, wallet: -1}, nil
}

// State returns the current step.
func (f *Flow) State() State { return f.state }

// Quote returns the order as priced when the coupon was entered.
func (f *Flow) Quote() checkout.Quote { return f.quote }

// Result returns the payment result once Paid.
func (f *Flow) Result() *checkout.Result { return f.result }

// WalletIndex returns the selected wallet, or -1.
func (f *Flow) WalletIndex() int { return f.wallet }

func (f *Flow) expect(states ...State) error {
	for _, s := range states {
		if f.state == s {
			return nil
		}
	}
	return errors.Wrapf(ErrInvalidState, "in state %s", f.state)
}

// EnterCoupon records an optional coupon code and prices the order. An
// unknown code is reported in Quote.CouponErr and dropped; the flow moves on
// to wallet selection either way.
func (f *Flow) EnterCoupon(code string) (checkout.Quote, error) {
	if err := f.expect(AwaitingCouponInput); err != nil {
		return checkout.Quote{}, err
	}
	q, err := f.reg.PriceCart(code)
	if err != nil {
		return checkout.Quote{}, err
	}
	f.quote = q
	if f.quote.CouponErr == nil {
		f.coupon = code
	}
	f.state = AwaitingWalletSelection
	return f.quote, nil
}

// SelectWallet picks a wallet by zero-based index. An unknown index returns
// wallet.ErrNotFound and leaves the flow waiting for a selection.
func (f *Flow) SelectWallet(index int) error {
	if err := f.expect(AwaitingWalletSelection); err != nil {
		return err
	}
	if _, err := f.reg.wallets.Get(index); err != nil {
		return err
	}
	f.wallet = index
	f.state = AwaitingCredential
	return nil
}

// SubmitCredential attempts the payment once.
//
//   - Paid: the flow ends.
//   - WrongCredential: the flow moves to Retry.
//   - InsufficientFunds: the flow returns to wallet selection.
//
// The payment error is returned alongside the outcome.
func (f *Flow) SubmitCredential(ctx context.Context, secret string) (checkout.Outcome, error) {
	if err := f.expect(AwaitingCredential, Retry); err != nil {
		return checkout.Failed, err
	}
	res, err := f.reg.AttemptPayment(ctx, f.wallet, secret, f.coupon)
	outcome := checkout.OutcomeOf(err)
	switch outcome {
	case checkout.Paid:
		f.result = res
		f.state = Paid
	case checkout.WrongCredential:
		f.state = Retry
	case checkout.InsufficientFunds, checkout.InvalidWallet:
		f.wallet = -1
		f.state = AwaitingWalletSelection
	}
	return outcome, err
}

// ChangeWallet returns to wallet selection from the credential prompt.
func (f *Flow) ChangeWallet() error {
	if err := f.expect(AwaitingCredential, Retry); err != nil {
		return err
	}
	f.wallet = -1
	f.state = AwaitingWalletSelection
	return nil
}

// Cancel abandons the checkout. The cart is kept. Cancelling a finished
// flow returns ErrInvalidState.
func (f *Flow) Cancel() error {
	if f.state.Terminal() {
		return errors.Wrapf(ErrInvalidState, "in state %s", f.state)
	}
	f.state = Cancelled
	return nil
}
