package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/kdelights/internal/domain/cart"
	"github.com/xenking/kdelights/internal/domain/coupon"
	"github.com/xenking/kdelights/internal/domain/pricing"
	"github.com/xenking/kdelights/internal/domain/receipt"
	"github.com/xenking/kdelights/internal/domain/wallet"
)

// DefaultRewardValue is the value of the coupon issued after every payment.
const DefaultRewardValue int64 = 50_000

// ReceiptWriter persists the latest receipt, replacing the previous one.
type ReceiptWriter interface {
	WriteReceipt(ctx context.Context, text string) error
}

// Quote is a priced cart. CouponErr is set when a coupon code was given but
// could not be applied; pricing continues without it.
type Quote struct {
	pricing.Breakdown
	CouponErr error
}

// PayRequest holds the input for one payment attempt.
type PayRequest struct {
	Lines       []cart.Line
	WalletIndex int
	Secret      string
	CouponCode  string
}

// Result holds the output of a successful payment.
type Result struct {
	Order         pricing.Breakdown
	CouponErr     error
	Wallet        wallet.Summary
	TransactionID string
	PaidAt        time.Time
	IssuedCoupon  coupon.Record
	Receipt       string
	Warnings      []*PersistenceWarning
}

// Service runs checkout: pricing, payment, coupon issuance and the receipt.
// It is not safe for concurrent use; callers serialize Pay calls.
type Service struct {
	engine   *pricing.Engine
	wallets  *wallet.Ledger
	coupons  *coupon.Ledger
	receipts ReceiptWriter
	renderer *receipt.Renderer

	gen     *coupon.Generator
	now     func() time.Time
	reward  int64
	consume bool

	lg       *zap.Logger
	tracer   trace.Tracer
	payments metric.Int64Counter
	charged  metric.Int64Counter
}

// Option configures a Service.
type Option func(*options)

type options struct {
	lg      *zap.Logger
	now     func() time.Time
	gen     *coupon.Generator
	reward  int64
	consume bool
	tp      trace.TracerProvider
	mp      metric.MeterProvider
}

// WithLogger sets the logger for persistence warnings.
func WithLogger(lg *zap.Logger) Option {
	return func(o *options) { o.lg = lg }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithGenerator overrides the coupon code generator.
func WithGenerator(g *coupon.Generator) Option {
	return func(o *options) { o.gen = g }
}

// WithRewardValue sets the value of the coupon issued on each payment.
func WithRewardValue(v int64) Option {
	return func(o *options) { o.reward = v }
}

// WithConsumeOnRedeem makes a redeemed coupon unusable after the payment
// that used it succeeds.
func WithConsumeOnRedeem(enabled bool) Option {
	return func(o *options) { o.consume = enabled }
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tp = tp }
}

// WithMeterProvider sets the meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.mp = mp }
}

// NewService creates a checkout Service with the required domain dependencies.
func NewService(
	engine *pricing.Engine,
	wallets *wallet.Ledger,
	coupons *coupon.Ledger,
	receipts ReceiptWriter,
	renderer *receipt.Renderer,
	opts ...Option,
) (*Service, error) {
	o := options{
		now:    time.Now,
		reward: DefaultRewardValue,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lg == nil {
		o.lg = zap.NewNop()
	}
	if o.gen == nil {
		o.gen = coupon.NewGenerator()
	}
	if o.tp == nil {
		o.tp = tracenoop.NewTracerProvider()
	}
	if o.mp == nil {
		o.mp = metricnoop.NewMeterProvider()
	}

	meter := o.mp.Meter("github.com/xenking/kdelights/checkout")
	payments, err := meter.Int64Counter("kdelights.checkout.payments",
		metric.WithDescription("Payment attempts by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "payments counter")
	}
	charged, err := meter.Int64Counter("kdelights.checkout.charged",
		metric.WithDescription("Total amount charged"),
		metric.WithUnit("{IDR}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "charged counter")
	}

	return &Service{
		engine:   engine,
		wallets:  wallets,
		coupons:  coupons,
		receipts: receipts,
		renderer: renderer,
		gen:      o.gen,
		now:      o.now,
		reward:   o.reward,
		consume:  o.consume,
		lg:       o.lg,
		tracer:   o.tp.Tracer("github.com/xenking/kdelights/checkout"),
		payments: payments,
		charged:  charged,
	}, nil
}

// Quote prices lines with an optional coupon code. An unknown code is
// reported in CouponErr and the order is priced without it.
func (s *Service) Quote(lines []cart.Line, code string) (Quote, error) {
	c, couponErr := s.resolveCoupon(code)
	b, err := s.engine.Price(lines, c)
	if err != nil {
		return Quote{}, errors.Wrap(err, "price")
	}
	return Quote{Breakdown: b, CouponErr: couponErr}, nil
}

func (s *Service) resolveCoupon(code string) (*pricing.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	v, err := s.coupons.Redeem(code)
	if err != nil {
		return nil, err
	}
	return &pricing.Coupon{Code: code, Value: v}, nil
}

// Pay prices the cart, verifies the wallet credential and debits the total.
// The credential is checked exactly once; retrying is up to the caller.
//
// Once the debit succeeds the payment is complete. Coupon issuance and the
// receipt write are attempted afterwards and their failures are returned as
// Result.Warnings rather than as an error.
func (s *Service) Pay(ctx context.Context, req PayRequest) (_ *Result, rerr error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Pay",
		trace.WithAttributes(attribute.Int("wallet.index", req.WalletIndex)),
	)
	defer func() {
		outcome := OutcomeOf(rerr)
		s.payments.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.String())))
		span.SetAttributes(attribute.String("outcome", outcome.String()))
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	if len(req.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	quote, err := s.Quote(req.Lines, req.CouponCode)
	if err != nil {
		return nil, err
	}
	order := quote.Breakdown

	w, err := s.wallets.Pay(req.WalletIndex, req.Secret, order.Total)
	if err != nil {
		return nil, err
	}
	s.charged.Add(ctx, order.Total)

	paidAt := s.now()
	res := &Result{
		Order:     order,
		CouponErr: quote.CouponErr,
		Wallet: wallet.Summary{
			Index:   req.WalletIndex,
			Name:    w.Name(),
			Balance: w.Balance(),
		},
		TransactionID: TransactionID(w.Name(), order.Total, paidAt),
		PaidAt:        paidAt,
		IssuedCoupon: coupon.Record{
			Code:  s.gen.Code(),
			Value: s.reward,
		},
	}

	if err := s.coupons.Issue(ctx, res.IssuedCoupon); err != nil {
		s.warn(res, "issue coupon", err)
	}

	res.Receipt = s.renderer.Render(receipt.Receipt{
		Order:            order,
		PaidAt:           paidAt,
		PaymentMethod:    w.Name(),
		TransactionID:    res.TransactionID,
		RemainingBalance: w.Balance(),
		NextCoupon:       res.IssuedCoupon.Code,
	})
	if s.receipts != nil {
		if err := s.receipts.WriteReceipt(ctx, res.Receipt); err != nil {
			s.warn(res, "write receipt", err)
		}
	}

	if s.consume && order.Coupon != nil {
		if err := s.coupons.Consume(ctx, order.Coupon.Code); err != nil {
			s.warn(res, "consume coupon", err)
		}
	}

	return res, nil
}

func (s *Service) warn(res *Result, op string, err error) {
	w := &PersistenceWarning{Op: op, Err: err}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		w.Path = pathErr.Path
	}
	s.lg.Warn("Persistence failed after payment",
		zap.String("op", op),
		zap.String("path", w.Path),
		zap.String("transaction_id", res.TransactionID),
		zap.Error(err),
	)
	res.Warnings = append(res.Warnings, w)
}

// TransactionID derives the audit token for a payment: the hex SHA-256 of
// "wallet|total|unix-millis".
func TransactionID(walletName string, total int64, at time.Time) string {
	h := sha256.Sum256([]byte(walletName + "|" + strconv.FormatInt(total, 10) + "|" + strconv.FormatInt(at.UnixMilli(), 10)))
	return hex.EncodeToString(h[:])
}
