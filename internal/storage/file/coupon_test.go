package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xenking/kdelights/internal/domain/coupon"
)

func TestCouponStore_LoadMissingFile(t *testing.T) {
	s := NewCouponStore(filepath.Join(t.TempDir(), "coupons.txt"), nil)

	records, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCouponStore_LoadSkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coupons.txt")
	content := "abc,50000\n" +
		"\n" +
		"no-comma\n" +
		"def,notanumber\n" +
		"  ghi , 25000  \n" +
		"zero,0\n" +
		",100\n" +
		"trunc,5"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	core, logs := observer.New(zap.WarnLevel)
	s := NewCouponStore(path, zap.New(core))

	records, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []coupon.Record{
		{Code: "abc", Value: 50_000},
		{Code: "ghi", Value: 25_000},
		{Code: "trunc", Value: 5},
	}, records)

	entries := logs.FilterMessage("Skipping malformed coupon line").All()
	require.Len(t, entries, 4)
	assert.EqualValues(t, 3, entries[0].ContextMap()["line"])
}

func TestCouponStore_AppendNeverRewrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coupons.txt")
	require.NoError(t, os.WriteFile(path, []byte("old,1000\n"), 0o644))

	s := NewCouponStore(path, nil)
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, coupon.Record{Code: "new", Value: 50_000}))
	require.NoError(t, s.Append(ctx, coupon.Record{Code: "new", Value: 50_000}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old,1000\nnew,50000\nnew,50000\n", string(b))

	records, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestCouponStore_AppendFailure(t *testing.T) {
	s := NewCouponStore(filepath.Join(t.TempDir(), "missing", "coupons.txt"), nil)

	err := s.Append(context.Background(), coupon.Record{Code: "x", Value: 1})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		line    string
		want    coupon.Record
		wantErr bool
	}{
		{line: "abc,50000", want: coupon.Record{Code: "abc", Value: 50_000}},
		{line: "abc,1,2", wantErr: true},
		{line: "abc", wantErr: true},
		{line: "abc,-5", wantErr: true},
		{line: "abc,0", wantErr: true},
		{line: "abc,x", wantErr: true},
		{line: "abc,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseRecord(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.line, FormatRecord(got))
		})
	}
}
