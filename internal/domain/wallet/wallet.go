package wallet

import (
	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors for wallet operations.
var (
	ErrNotFound          = errors.New("wallet not found")
	ErrWrongCredential   = errors.New("wrong wallet credential")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must not be negative")
)

// Seed describes a wallet to create at startup.
type Seed struct {
	Name    string `yaml:"name"`
	Balance int64  `yaml:"balance"`
	Secret  string `yaml:"secret"`
}

// DefaultSeeds are the demo wallets; each secret equals the wallet name.
func DefaultSeeds() []Seed {
	return []Seed{
		{Name: "myaccount", Balance: 5_000_000, Secret: "myaccount"},
		{Name: "mybank", Balance: 12_000_000, Secret: "mybank"},
		{Name: "mysecret", Balance: 100_000_000, Secret: "mysecret"},
	}
}

// Wallet is a pre-funded payment account. The balance only changes through
// Debit.
type Wallet struct {
	name    string
	balance int64
	hash    []byte
}

// Name returns the display name.
func (w *Wallet) Name() string { return w.name }

// Balance returns the current balance.
func (w *Wallet) Balance() int64 { return w.balance }

// Verify compares secret against the stored bcrypt hash.
func (w *Wallet) Verify(secret string) bool {
	return bcrypt.CompareHashAndPassword(w.hash, []byte(secret)) == nil
}

// CanPay reports whether amount fits in the balance.
func (w *Wallet) CanPay(amount int64) bool {
	return amount <= w.balance
}

// Debit subtracts amount, failing without change when funds are short.
func (w *Wallet) Debit(amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if !w.CanPay(amount) {
		return ErrInsufficientFunds
	}
	w.balance -= amount
	return nil
}
