package file

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/kdelights/internal/domain/coupon"
)

var _ coupon.Store = (*CouponStore)(nil)

// CouponStore is the coupon ledger file: one "code,value" record per line.
type CouponStore struct {
	mu   sync.Mutex
	path string
	lg   *zap.Logger
}

// NewCouponStore returns a CouponStore for path. A nil logger discards
// warnings about malformed lines.
func NewCouponStore(path string, lg *zap.Logger) *CouponStore {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &CouponStore{path: path, lg: lg}
}

// Path returns the ledger file path.
func (s *CouponStore) Path() string {
	return s.path
}

// Load reads every well-formed record. A missing file yields no records.
// Lines with the wrong field count or a non-positive or non-integer value are
// skipped with a warning.
func (s *CouponStore) Load(ctx context.Context) ([]coupon.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []coupon.Record
	err := scanLines(ctx, s.path, func(n int, line string) {
		rec, err := ParseRecord(line)
		if err != nil {
			s.lg.Warn("Skipping malformed coupon line",
				zap.String("path", s.path),
				zap.Int("line", n),
				zap.Error(err),
			)
			return
		}
		records = append(records, rec)
	})
	if err != nil {
		return records, errors.Wrap(err, "load coupons")
	}
	return records, nil
}

// Append writes rec as a new line. Existing lines are never rewritten.
func (s *CouponStore) Append(_ context.Context, rec coupon.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendLine(s.path, FormatRecord(rec))
}

// FormatRecord renders rec in ledger line format, without the newline.
func FormatRecord(rec coupon.Record) string {
	return rec.Code + "," + strconv.FormatInt(rec.Value, 10)
}

// ParseRecord parses one ledger line.
func ParseRecord(line string) (coupon.Record, error) {
	code, raw, ok := strings.Cut(strings.TrimSpace(line), ",")
	code = strings.TrimSpace(code)
	if !ok || code == "" {
		return coupon.Record{}, errors.Errorf("want code,value: %q", line)
	}
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return coupon.Record{}, errors.Wrap(err, "parse value")
	}
	if value <= 0 {
		return coupon.Record{}, coupon.ErrInvalidValue
	}
	return coupon.Record{Code: code, Value: value}, nil
}
