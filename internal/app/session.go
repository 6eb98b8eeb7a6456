package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/kdelights/internal/domain/checkout"
	"github.com/xenking/kdelights/internal/domain/coupon"
	"github.com/xenking/kdelights/internal/domain/menu"
	"github.com/xenking/kdelights/internal/domain/pricing"
	"github.com/xenking/kdelights/internal/domain/receipt"
	"github.com/xenking/kdelights/internal/domain/wallet"
	"github.com/xenking/kdelights/internal/pos"
	"github.com/xenking/kdelights/internal/storage/file"
)

// Session is a fully wired register with the collaborators front ends need.
type Session struct {
	Register *pos.Register
	Renderer *receipt.Renderer
	Coupons  *coupon.Ledger
}

// Telemetry providers for the checkout service. Nil fields use no-op
// providers.
type Telemetry struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// NewSession loads the ledgers and wallets and wires one register. A coupon
// ledger that cannot be read is logged and treated as empty.
func NewSession(ctx context.Context, lg *zap.Logger, cfg *Config, tel Telemetry) (*Session, error) {
	if lg == nil {
		lg = zap.NewNop()
	}
	seeds, err := file.LoadWallets(cfg.WalletsFile)
	if err != nil {
		return nil, errors.Wrap(err, "load wallets")
	}
	wallets, err := wallet.NewLedger(seeds, cfg.Wallet.HashCost)
	if err != nil {
		return nil, errors.Wrap(err, "create wallets")
	}

	couponStore := file.NewCouponStore(cfg.CouponLedger, lg.Named("coupons"))
	records, err := couponStore.Load(ctx)
	if err != nil {
		lg.Warn("Coupon ledger unreadable, continuing with loaded records",
			zap.String("path", cfg.CouponLedger),
			zap.Int("loaded", len(records)),
			zap.Error(err),
		)
	}

	var (
		consumed   []string
		ledgerOpts = []coupon.Option{coupon.WithLogger(lg.Named("coupons"))}
	)
	if cfg.Coupons.ConsumeOnRedeem {
		redeemed := file.NewRedeemedStore(cfg.RedeemedLedger)
		consumed, err = redeemed.Load(ctx)
		if err != nil {
			lg.Warn("Redeemed coupon ledger unreadable",
				zap.String("path", cfg.RedeemedLedger),
				zap.Error(err),
			)
		}
		ledgerOpts = append(ledgerOpts, coupon.WithRedemptionStore(redeemed))
	}
	coupons := coupon.NewLedger(couponStore, records, consumed, ledgerOpts...)
	lg.Info("Coupon ledger loaded",
		zap.String("path", cfg.CouponLedger),
		zap.Int("codes", coupons.Len()),
	)

	rules := cfg.PricingRules()
	renderer := receipt.NewRenderer(receipt.ParseLocale(cfg.Locale), rules)

	svc, err := checkout.NewService(
		pricing.NewEngine(rules),
		wallets,
		coupons,
		file.NewReceiptWriter(cfg.ReceiptPath),
		renderer,
		checkout.WithLogger(lg.Named("checkout")),
		checkout.WithRewardValue(cfg.Coupons.RewardValue),
		checkout.WithConsumeOnRedeem(cfg.Coupons.ConsumeOnRedeem),
		checkout.WithTracerProvider(tel.TracerProvider),
		checkout.WithMeterProvider(tel.MeterProvider),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create checkout service")
	}

	return &Session{
		Register: pos.NewRegister(menu.Default(), wallets, svc, lg.Named("register")),
		Renderer: renderer,
		Coupons:  coupons,
	}, nil
}
