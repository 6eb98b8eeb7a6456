package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kdelights/internal/domain/checkout"
)

// Quote serves GET /api/quote?coupon=. An unknown coupon is reported in
// "couponError" and the order is priced without it.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	q, err := h.reg.PriceCart(r.URL.Query().Get("coupon"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			encodeBreakdown(e, q.Breakdown)
			if q.CouponErr != nil {
				strField(e, "couponError", q.CouponErr.Error())
			}
			if h.renderer != nil && len(q.Lines) > 0 {
				strField(e, "summary", h.renderer.Summary(q.Breakdown))
			}
		})
	})
}

// ListWallets serves GET /api/wallets.
func (h *Handler) ListWallets(w http.ResponseWriter, _ *http.Request) {
	wallets := h.reg.ListWallets()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, s := range wallets {
				encodeWallet(e, s)
			}
		})
	})
}

type paymentReq struct {
	Wallet int
	Secret string
	Coupon string
}

func decodePayment(w http.ResponseWriter, r *http.Request) (paymentReq, error) {
	var req paymentReq
	d := jx.Decode(http.MaxBytesReader(w, r.Body, maxBodySize), 512)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "wallet":
			req.Wallet, err = d.Int()
		case "secret":
			req.Secret, err = d.Str()
		case "coupon":
			if d.Next() == jx.Null {
				return d.Null()
			}
			req.Coupon, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return req, err
}

// CreatePayment serves POST /api/payments {"wallet","secret","coupon"}. The
// wallet index is 1-based. One request is one credential attempt.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	req, err := decodePayment(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	ctx := r.Context()
	res, err := h.reg.AttemptPayment(ctx, req.Wallet-1, req.Secret, req.Coupon)
	switch outcome := checkout.OutcomeOf(err); outcome {
	case checkout.Paid:
		for _, warn := range res.Warnings {
			zctx.From(ctx).Warn("Payment persisted partially",
				zap.String("op", warn.Op),
				zap.String("path", warn.Path),
				zap.Error(warn.Err),
			)
		}
		writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeResult(e, res) })
	case checkout.WrongCredential:
		writeError(w, http.StatusUnauthorized, err.Error())
	case checkout.InsufficientFunds:
		writeError(w, http.StatusPaymentRequired, err.Error())
	case checkout.InvalidWallet:
		writeError(w, http.StatusNotFound, err.Error())
	case checkout.EmptyCart:
		writeError(w, http.StatusConflict, err.Error())
	case checkout.InvalidOrder:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		zctx.From(ctx).Error("Payment failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "payment failed")
	}
}

// GetReceipt serves GET /api/receipt as text/plain.
func (h *Handler) GetReceipt(w http.ResponseWriter, _ *http.Request) {
	text, ok := h.reg.LastReceiptText()
	if !ok {
		writeError(w, http.StatusNotFound, "no receipt yet")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}
