// Command coupon-import appends coupons from gzip batch files to the coupon
// ledger, skipping codes the ledger already holds.
//
// Each batch file is gzip-compressed text with one "code,value" record per
// line, the same format as the ledger itself.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"github.com/xenking/kdelights/internal/storage/file"
)

func main() {
	var (
		ledger string
		files  string
	)
	flag.StringVar(&ledger, "ledger", "coupons.txt", "coupon ledger file to append to")
	flag.StringVar(&files, "files", "", "comma-separated list of .gz batch files (or pass them as arguments)")
	flag.Parse()

	batches := flag.Args()
	if files != "" {
		batches = append(strings.Split(files, ","), batches...)
	}

	lg, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "coupon-import:", err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()

	if len(batches) == 0 {
		lg.Error("No batch files given: use --files or arguments")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	stats, err := importBatches(ctx, lg, file.NewCouponStore(ledger, lg.Named("ledger")), batches)
	if err != nil {
		lg.Error("Coupon import failed", zap.Error(err))
		os.Exit(1)
	}
	lg.Info("Coupon import completed",
		zap.Int("scanned", stats.Scanned),
		zap.Int("malformed", stats.Malformed),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("appended", stats.Appended),
	)
}
