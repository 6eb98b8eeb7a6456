package wallet

import (
	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"
)

// Summary is the public view of a wallet shown to front ends.
type Summary struct {
	Index   int
	Name    string
	Balance int64
}

// Ledger is the in-memory set of wallets for one session. Balances are not
// persisted. Not safe for concurrent use; callers serialize access.
type Ledger struct {
	wallets []*Wallet
}

// NewLedger hashes every seed secret with the given bcrypt cost. A cost of 0
// selects bcrypt.DefaultCost.
func NewLedger(seeds []Seed, cost int) (*Ledger, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	l := &Ledger{wallets: make([]*Wallet, 0, len(seeds))}
	seen := make(map[string]struct{}, len(seeds))
	for _, s := range seeds {
		if s.Name == "" {
			return nil, errors.New("wallet name is empty")
		}
		if _, dup := seen[s.Name]; dup {
			return nil, errors.Errorf("duplicate wallet %q", s.Name)
		}
		if s.Balance < 0 {
			return nil, errors.Errorf("wallet %q has negative balance", s.Name)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(s.Secret), cost)
		if err != nil {
			return nil, errors.Wrapf(err, "hash secret for wallet %q", s.Name)
		}
		seen[s.Name] = struct{}{}
		l.wallets = append(l.wallets, &Wallet{name: s.Name, balance: s.Balance, hash: hash})
	}
	return l, nil
}

// Get returns the wallet at the zero-based index.
func (l *Ledger) Get(index int) (*Wallet, error) {
	if index < 0 || index >= len(l.wallets) {
		return nil, ErrNotFound
	}
	return l.wallets[index], nil
}

// List returns name and balance of every wallet in seed order.
func (l *Ledger) List() []Summary {
	out := make([]Summary, len(l.wallets))
	for i, w := range l.wallets {
		out[i] = Summary{Index: i, Name: w.name, Balance: w.balance}
	}
	return out
}

// Len returns the number of wallets.
func (l *Ledger) Len() int {
	return len(l.wallets)
}

// Pay verifies the secret, checks funds and debits. Failures leave the
// balance unchanged.
func (l *Ledger) Pay(index int, secret string, amount int64) (*Wallet, error) {
	w, err := l.Get(index)
	if err != nil {
		return nil, err
	}
	if !w.Verify(secret) {
		return w, ErrWrongCredential
	}
	if err := w.Debit(amount); err != nil {
		return w, err
	}
	return w, nil
}
