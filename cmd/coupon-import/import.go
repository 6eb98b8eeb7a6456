package main

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kdelights/internal/domain/coupon"
	"github.com/xenking/kdelights/internal/storage/file"
)

const (
	bloomFPR      = 0.001
	minBloomSize  = 1024
	progressEvery = 100_000
)

type importStats struct {
	Scanned    int
	Malformed  int
	Duplicates int
	Appended   int
}

// known is the set of codes already in the ledger. The bloom filter answers
// most misses without touching the map; hits are confirmed exactly.
type known struct {
	filter *bloom.BloomFilter
	codes  map[string]struct{}
}

func newKnown(records []coupon.Record) *known {
	k := &known{
		filter: bloom.NewWithEstimates(uint(max(len(records), minBloomSize)), bloomFPR),
		codes:  make(map[string]struct{}, len(records)),
	}
	for _, r := range records {
		k.filter.AddString(r.Code)
		k.codes[r.Code] = struct{}{}
	}
	return k
}

func (k *known) has(code string) bool {
	if !k.filter.TestString(code) {
		return false
	}
	_, ok := k.codes[code]
	return ok
}

// batchResult holds the candidate records of one batch file.
type batchResult struct {
	records   []coupon.Record
	scanned   int
	malformed int
}

// importBatches scans batches concurrently and appends records whose code is
// neither in the ledger nor earlier in the batches. Batch order is kept.
func importBatches(ctx context.Context, lg *zap.Logger, store *file.CouponStore, batches []string) (importStats, error) {
	var stats importStats

	existing, err := store.Load(ctx)
	if err != nil {
		return stats, errors.Wrap(err, "load ledger")
	}
	k := newKnown(existing)
	lg.Info("Ledger loaded", zap.String("path", store.Path()), zap.Int("codes", len(k.codes)))

	results := make([]batchResult, len(batches))
	g, gCtx := errgroup.WithContext(ctx)
	for i, path := range batches {
		g.Go(func() error {
			res, err := scanBatch(gCtx, lg.With(zap.String("batch", path)), path, k)
			if err != nil {
				return errors.Wrapf(err, "scan %s", path)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	seen := make(map[string]struct{})
	for _, res := range results {
		stats.Scanned += res.scanned
		stats.Malformed += res.malformed
		stats.Duplicates += res.scanned - res.malformed - len(res.records)
		for _, rec := range res.records {
			if _, dup := seen[rec.Code]; dup {
				stats.Duplicates++
				continue
			}
			seen[rec.Code] = struct{}{}
			if err := store.Append(ctx, rec); err != nil {
				return stats, errors.Wrapf(err, "append %s", rec.Code)
			}
			stats.Appended++
		}
	}
	return stats, nil
}

// scanBatch streams one gzip batch and returns records not already known.
func scanBatch(ctx context.Context, lg *zap.Logger, path string, k *known) (batchResult, error) {
	var res batchResult

	f, err := os.Open(path)
	if err != nil {
		return res, err
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return res, errors.Wrap(err, "gzip reader")
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		res.scanned++
		if res.scanned%progressEvery == 0 {
			lg.Info("Batch progress", zap.Int("scanned", res.scanned))
		}

		rec, err := file.ParseRecord(line)
		if err != nil {
			res.malformed++
			lg.Debug("Skipping malformed record", zap.Int("record", res.scanned), zap.Error(err))
			continue
		}
		if k.has(rec.Code) {
			continue
		}
		res.records = append(res.records, rec)
	}
	if err := scanner.Err(); err != nil {
		return res, errors.Wrap(err, "scan")
	}

	lg.Info("Batch scanned",
		zap.Int("scanned", res.scanned),
		zap.Int("candidates", len(res.records)),
		zap.Int("malformed", res.malformed),
	)
	return res, nil
}
