package coupon

import (
	"context"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when a coupon code is not in the ledger.
	ErrNotFound = errors.New("coupon not found")
	// ErrInvalidValue is returned when issuing a coupon worth zero or less.
	ErrInvalidValue = errors.New("coupon value must be positive")
)

// Record is one persisted ledger entry: an opaque code and its redeemable value.
type Record struct {
	Code  string
	Value int64
}

// Store persists issued coupons. Implementations append and never rewrite.
type Store interface {
	Append(ctx context.Context, rec Record) error
}

// RedemptionStore persists consumed coupon codes.
type RedemptionStore interface {
	MarkRedeemed(ctx context.Context, code string) error
}

type entry struct {
	value int64
	// copies counts ledger lines carrying this code; each one is redeemable.
	copies int
}

// Ledger is the in-memory view of the coupon ledger. Mutations go to the
// backing Store first and are kept in memory even when persisting fails.
type Ledger struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	store    Store
	redeemed RedemptionStore
	lg       *zap.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger used for persistence warnings.
func WithLogger(lg *zap.Logger) Option {
	return func(l *Ledger) {
		if lg != nil {
			l.lg = lg
		}
	}
}

// WithRedemptionStore enables Consume. Without it coupons stay redeemable
// forever.
func WithRedemptionStore(s RedemptionStore) Option {
	return func(l *Ledger) {
		l.redeemed = s
	}
}

// NewLedger builds a ledger from previously loaded records. Codes listed in
// consumed cancel one copy each. Every copy of a repeated code stays
// redeemable, but copies with differing values collapse to the last value
// loaded.
func NewLedger(store Store, records []Record, consumed []string, opts ...Option) *Ledger {
	l := &Ledger{
		entries: make(map[string]*entry, len(records)),
		store:   store,
		lg:      zap.NewNop(),
	}
	for _, o := range opts {
		o(l)
	}
	for _, r := range records {
		l.add(r)
	}
	for _, code := range consumed {
		l.drop(code)
	}
	return l
}

func (l *Ledger) add(r Record) {
	if e, ok := l.entries[r.Code]; ok {
		e.value = r.Value
		e.copies++
		return
	}
	l.entries[r.Code] = &entry{value: r.Value, copies: 1}
}

func (l *Ledger) drop(code string) bool {
	e, ok := l.entries[code]
	if !ok {
		return false
	}
	e.copies--
	if e.copies <= 0 {
		delete(l.entries, code)
	}
	return true
}

// Issue appends rec to the store and to the in-memory mapping. No dedupe is
// done: a colliding code simply gains another redeemable copy. The returned
// error reports a persistence failure; the coupon is usable in memory anyway.
func (l *Ledger) Issue(ctx context.Context, rec Record) error {
	if rec.Value <= 0 {
		return ErrInvalidValue
	}

	l.mu.Lock()
	l.add(rec)
	l.mu.Unlock()

	if l.store == nil {
		return nil
	}
	if err := l.store.Append(ctx, rec); err != nil {
		return errors.Wrap(err, "append coupon")
	}
	return nil
}

// Redeem returns the value stored for code without consuming it.
func (l *Ledger) Redeem(code string) (int64, error) {
	code = strings.TrimSpace(code)

	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.entries[code]
	if !ok {
		return 0, ErrNotFound
	}
	return e.value, nil
}

// CanConsume reports whether Consume does anything for this ledger.
func (l *Ledger) CanConsume() bool {
	return l.redeemed != nil
}

// Consume removes one copy of code and records the redemption. It is a no-op
// returning nil when no RedemptionStore was configured.
func (l *Ledger) Consume(ctx context.Context, code string) error {
	if l.redeemed == nil {
		return nil
	}
	code = strings.TrimSpace(code)

	l.mu.Lock()
	ok := l.drop(code)
	l.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	if err := l.redeemed.MarkRedeemed(ctx, code); err != nil {
		return errors.Wrap(err, "mark coupon redeemed")
	}
	return nil
}

// Len returns the number of distinct redeemable codes.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
