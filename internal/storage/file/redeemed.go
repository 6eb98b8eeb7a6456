package file

import (
	"context"
	"strings"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/kdelights/internal/domain/coupon"
)

var _ coupon.RedemptionStore = (*RedeemedStore)(nil)

// RedeemedStore is the redeemed-codes ledger, one code per line. Each line
// cancels one copy of the code at load.
type RedeemedStore struct {
	mu   sync.Mutex
	path string
}

// NewRedeemedStore returns a RedeemedStore for path.
func NewRedeemedStore(path string) *RedeemedStore {
	return &RedeemedStore{path: path}
}

// Path returns the ledger file path.
func (s *RedeemedStore) Path() string {
	return s.path
}

// Load returns the consumed codes in file order. A missing file yields none.
func (s *RedeemedStore) Load(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var codes []string
	if err := scanLines(ctx, s.path, func(_ int, line string) {
		codes = append(codes, line)
	}); err != nil {
		return codes, errors.Wrap(err, "load redeemed coupons")
	}
	return codes, nil
}

// MarkRedeemed appends code.
func (s *RedeemedStore) MarkRedeemed(_ context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return errors.New("empty coupon code")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendLine(s.path, code)
}
