package coupon

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	appended []Record
	err      error
}

func (m *mockStore) Append(_ context.Context, rec Record) error {
	m.appended = append(m.appended, rec)
	return m.err
}

type mockRedemptions struct {
	codes []string
	err   error
}

func (m *mockRedemptions) MarkRedeemed(_ context.Context, code string) error {
	m.codes = append(m.codes, code)
	return m.err
}

func TestLedger_Redeem(t *testing.T) {
	l := NewLedger(nil, []Record{
		{Code: "abc", Value: 50_000},
		{Code: "def", Value: 10_000},
	}, nil)

	v, err := l.Redeem("abc")
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), v)

	// Trimmed input still matches; codes are case-sensitive digests.
	v, err = l.Redeem("  def\n")
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), v)

	_, err = l.Redeem("ABC")
	require.ErrorIs(t, err, ErrNotFound)

	// Redeem never removes.
	_, err = l.Redeem("abc")
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())
}

func TestLedger_IssueAppendsWithoutDedupe(t *testing.T) {
	store := &mockStore{}
	l := NewLedger(store, nil, nil)
	ctx := context.Background()

	require.NoError(t, l.Issue(ctx, Record{Code: "x", Value: 50_000}))
	require.NoError(t, l.Issue(ctx, Record{Code: "x", Value: 50_000}))

	assert.Len(t, store.appended, 2)
	assert.Equal(t, 1, l.Len())

	v, err := l.Redeem("x")
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), v)
}

func TestLedger_IssueKeepsCouponWhenStoreFails(t *testing.T) {
	store := &mockStore{err: errors.New("disk full")}
	l := NewLedger(store, nil, nil)

	err := l.Issue(context.Background(), Record{Code: "y", Value: 50_000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append coupon")

	_, err = l.Redeem("y")
	require.NoError(t, err)
}

func TestLedger_IssueRejectsNonPositiveValue(t *testing.T) {
	store := &mockStore{}
	l := NewLedger(store, nil, nil)

	require.ErrorIs(t, l.Issue(context.Background(), Record{Code: "z", Value: 0}), ErrInvalidValue)
	assert.Empty(t, store.appended)
}

func TestLedger_ConsumeDisabledByDefault(t *testing.T) {
	l := NewLedger(nil, []Record{{Code: "a", Value: 1}}, nil)

	assert.False(t, l.CanConsume())
	require.NoError(t, l.Consume(context.Background(), "a"))

	_, err := l.Redeem("a")
	require.NoError(t, err)
}

func TestLedger_ConsumeRemovesOneCopy(t *testing.T) {
	red := &mockRedemptions{}
	l := NewLedger(nil, []Record{
		{Code: "dup", Value: 50_000},
		{Code: "dup", Value: 50_000},
	}, nil, WithRedemptionStore(red))
	ctx := context.Background()

	require.True(t, l.CanConsume())
	require.NoError(t, l.Consume(ctx, "dup"))
	_, err := l.Redeem("dup")
	require.NoError(t, err, "second copy is still redeemable")

	require.NoError(t, l.Consume(ctx, "dup"))
	_, err = l.Redeem("dup")
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, l.Consume(ctx, "dup"), ErrNotFound)
	assert.Equal(t, []string{"dup", "dup"}, red.codes)
}

func TestNewLedger_DuplicateValuesCollapseToLast(t *testing.T) {
	red := &mockRedemptions{}
	l := NewLedger(nil, []Record{
		{Code: "dup", Value: 10_000},
		{Code: "dup", Value: 30_000},
	}, nil, WithRedemptionStore(red))

	v, err := l.Redeem("dup")
	require.NoError(t, err)
	assert.Equal(t, int64(30_000), v)

	require.NoError(t, l.Consume(context.Background(), "dup"))
	v, err = l.Redeem("dup")
	require.NoError(t, err, "second copy")
	assert.Equal(t, int64(30_000), v)
}

func TestNewLedger_ExcludesConsumed(t *testing.T) {
	l := NewLedger(nil, []Record{
		{Code: "a", Value: 1},
		{Code: "b", Value: 2},
	}, []string{"a", "unknown"}, WithRedemptionStore(&mockRedemptions{}))

	_, err := l.Redeem("a")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, l.Len())
}

func TestGenerator_Code(t *testing.T) {
	g := &Generator{
		now:  func() time.Time { return time.UnixMilli(1_700_000_000_000) },
		intn: func(n int) int { return n - 1 },
	}

	sum := sha256.Sum256([]byte("SAPPHIRE1700000000000999"))
	assert.Equal(t, hex.EncodeToString(sum[:]), g.Code())
}

func TestGenerator_Defaults(t *testing.T) {
	g := NewGenerator()
	a, b := g.Code(), g.Code()

	assert.Len(t, a, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", a)
	assert.NotEmpty(t, b)
}
