package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/kdelights/internal/domain/cart"
	"github.com/xenking/kdelights/internal/domain/checkout"
	"github.com/xenking/kdelights/internal/domain/coupon"
	"github.com/xenking/kdelights/internal/domain/menu"
	"github.com/xenking/kdelights/internal/domain/pricing"
	"github.com/xenking/kdelights/internal/domain/wallet"
)

// writeJSON encodes a response body with fn.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

func int64Field(e *jx.Encoder, name string, v int64) {
	e.Field(name, func(e *jx.Encoder) { e.Int64(v) })
}

func strField(e *jx.Encoder, name, v string) {
	e.Field(name, func(e *jx.Encoder) { e.Str(v) })
}

func encodeItem(e *jx.Encoder, it menu.Item) {
	e.Obj(func(e *jx.Encoder) {
		strField(e, "name", it.Name)
		int64Field(e, "price", it.UnitPrice)
		strField(e, "category", string(it.Category))
	})
}

// encodeLine writes a cart line with its 1-based index.
func encodeLine(e *jx.Encoder, i int, l cart.Line, promo bool) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("index", func(e *jx.Encoder) { e.Int(i + 1) })
		strField(e, "name", l.Item.Name)
		int64Field(e, "unitPrice", l.Item.UnitPrice)
		e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
		int64Field(e, "total", l.Total())
		if promo {
			e.Field("promo", func(e *jx.Encoder) { e.Bool(true) })
		}
	})
}

func encodeCart(e *jx.Encoder, lines []cart.Line) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for i, l := range lines {
					encodeLine(e, i, l, false)
				}
			})
		})
	})
}

func encodeCoupon(e *jx.Encoder, c coupon.Record) {
	e.Obj(func(e *jx.Encoder) {
		strField(e, "code", c.Code)
		int64Field(e, "value", c.Value)
	})
}

func encodeBreakdown(e *jx.Encoder, b pricing.Breakdown) {
	e.Field("lines", func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i, l := range b.Lines {
				encodeLine(e, i, l.Line, l.Promo)
			}
		})
	})
	if b.PromoApplied() {
		strField(e, "promoItem", b.PromoItem)
	}
	if b.PromoCredit > 0 {
		int64Field(e, "promoCredit", b.PromoCredit)
	}
	int64Field(e, "subtotal", b.Subtotal)
	int64Field(e, "discount", b.Discount)
	int64Field(e, "afterDiscount", b.AfterDiscount)
	if b.Coupon != nil {
		e.Field("coupon", func(e *jx.Encoder) {
			encodeCoupon(e, coupon.Record{Code: b.Coupon.Code, Value: b.Coupon.Value})
		})
	}
	int64Field(e, "tax", b.Tax)
	int64Field(e, "serviceFee", b.ServiceFee)
	int64Field(e, "total", b.Total)
}

// encodeWallet writes a wallet with its 1-based index.
func encodeWallet(e *jx.Encoder, s wallet.Summary) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("index", func(e *jx.Encoder) { e.Int(s.Index + 1) })
		strField(e, "name", s.Name)
		int64Field(e, "balance", s.Balance)
	})
}

func encodeResult(e *jx.Encoder, res *checkout.Result) {
	e.Obj(func(e *jx.Encoder) {
		strField(e, "transactionId", res.TransactionID)
		strField(e, "paidAt", res.PaidAt.Format(time.RFC3339))
		e.Field("wallet", func(e *jx.Encoder) { encodeWallet(e, res.Wallet) })
		e.Field("order", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) { encodeBreakdown(e, res.Order) })
		})
		if res.CouponErr != nil {
			strField(e, "couponError", res.CouponErr.Error())
		}
		e.Field("issuedCoupon", func(e *jx.Encoder) { encodeCoupon(e, res.IssuedCoupon) })
		if len(res.Warnings) > 0 {
			e.Field("warnings", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, w := range res.Warnings {
						e.Str(w.Error())
					}
				})
			})
		}
		strField(e, "receipt", res.Receipt)
	})
}
