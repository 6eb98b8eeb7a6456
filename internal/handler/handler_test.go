package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/language"

	"github.com/xenking/kdelights/internal/domain/checkout"
	"github.com/xenking/kdelights/internal/domain/coupon"
	"github.com/xenking/kdelights/internal/domain/menu"
	"github.com/xenking/kdelights/internal/domain/pricing"
	"github.com/xenking/kdelights/internal/domain/receipt"
	"github.com/xenking/kdelights/internal/domain/wallet"
	"github.com/xenking/kdelights/internal/pos"
	"github.com/xenking/kdelights/pkg/httpmiddleware"
)

// --- Mock implementations ---

type memCoupons struct {
	records []coupon.Record
}

func (m *memCoupons) Append(_ context.Context, rec coupon.Record) error {
	m.records = append(m.records, rec)
	return nil
}

type memReceipts struct{}

func (memReceipts) WriteReceipt(context.Context, string) error { return nil }

// --- Helpers ---

func newServer(t *testing.T, payments ...httpmiddleware.Middleware) *httptest.Server {
	t.Helper()

	wallets, err := wallet.NewLedger(wallet.DefaultSeeds(), bcrypt.MinCost)
	require.NoError(t, err)

	rules := pricing.DefaultRules()
	renderer := receipt.NewRenderer(language.English, rules)
	svc, err := checkout.NewService(
		pricing.NewEngine(rules),
		wallets,
		coupon.NewLedger(&memCoupons{}, []coupon.Record{{Code: "abc", Value: 50_000}}, nil),
		memReceipts{},
		renderer,
		checkout.WithClock(func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewHandler(pos.NewRegister(menu.Default(), wallets, svc, nil), renderer).Mount(mux, payments...)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

// field extracts a top-level scalar from a JSON object as raw text.
func field(t *testing.T, body []byte, name string) string {
	t.Helper()
	var out string
	d := jx.DecodeBytes(body)
	require.NoError(t, d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != name {
			return d.Skip()
		}
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		out = strings.Trim(raw.String(), `"`)
		return nil
	}))
	return out
}

func arrayLen(t *testing.T, body []byte) int {
	t.Helper()
	n := 0
	require.NoError(t, jx.DecodeBytes(body).Arr(func(d *jx.Decoder) error {
		n++
		return d.Skip()
	}))
	return n
}

// --- Tests ---

func TestListMenu(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		query      string
		wantStatus int
		wantLen    int
	}{
		{query: "", wantStatus: http.StatusOK, wantLen: 8},
		{query: "?category=food", wantStatus: http.StatusOK, wantLen: 4},
		{query: "?category=drink", wantStatus: http.StatusOK, wantLen: 4},
		{query: "?category=dessert", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, body := do(t, srv, http.MethodGet, "/api/menu"+tt.query, "")
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantLen, arrayLen(t, body))
			}
		})
	}
}

func TestCartLifecycle(t *testing.T) {
	srv := newServer(t)

	resp, body := do(t, srv, http.MethodPost, "/api/cart/items", `{"name":"bibimbap","quantity":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, _ = do(t, srv, http.MethodPost, "/api/cart/items", `{"name":"Soju","quantity":2}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = do(t, srv, http.MethodPost, "/api/cart/items", `{"name":"pizza"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "404", field(t, body, "code"))

	resp, _ = do(t, srv, http.MethodPost, "/api/cart/items", `{"name":"Kimchi","quantity":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/api/cart/items", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, srv, http.MethodGet, "/api/quote", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "100000", field(t, body, "subtotal"))
	assert.Equal(t, "0", field(t, body, "discount"))
	assert.Equal(t, "130000", field(t, body, "total"))
	assert.Equal(t, "Soju", field(t, body, "promoItem"))

	resp, body = do(t, srv, http.MethodGet, "/api/quote?coupon=nope", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "coupon not found", field(t, body, "couponError"))
	assert.Equal(t, "130000", field(t, body, "total"))

	resp, _ = do(t, srv, http.MethodDelete, "/api/cart/items/3", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodDelete, "/api/cart/items/x", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodDelete, "/api/cart/items/1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodDelete, "/api/cart", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = do(t, srv, http.MethodGet, "/api/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"lines":[]}`, string(body))
}

func TestCreatePayment(t *testing.T) {
	srv := newServer(t)

	resp, _ := do(t, srv, http.MethodPost, "/api/payments", `{"wallet":1,"secret":"myaccount"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodGet, "/api/receipt", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/api/cart/items", `{"name":"Bulgogi","quantity":3}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "unknown wallet", body: `{"wallet":9,"secret":"x"}`, wantStatus: http.StatusNotFound},
		{name: "wrong secret", body: `{"wallet":1,"secret":"guess"}`, wantStatus: http.StatusUnauthorized},
		{name: "bad body", body: `{"wallet":"one"}`, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := do(t, srv, http.MethodPost, "/api/payments", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	resp, body := do(t, srv, http.MethodPost, "/api/payments", `{"wallet":1,"secret":"myaccount","coupon":null}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Len(t, field(t, body, "transactionId"), 64)
	assert.Equal(t, "2025-03-01T12:00:00Z", field(t, body, "paidAt"))

	resp, body = do(t, srv, http.MethodGet, "/api/wallets", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[
		{"index":1,"name":"myaccount","balance":4876050},
		{"index":2,"name":"mybank","balance":12000000},
		{"index":3,"name":"mysecret","balance":100000000}
	]`, string(body))

	resp, body = do(t, srv, http.MethodGet, "/api/receipt", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "TOTAL BAYAR     : Rp 123,950\n")

	resp, body = do(t, srv, http.MethodGet, "/api/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"lines":[]}`, string(body))
}

func TestAddCartItem_QuantityBounds(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		// 12000 * 112217693115066439 wraps to 32 in int64.
		{name: "wrapping quantity", body: `{"name":"Kimchi","quantity":112217693115066439}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "above maximum", body: `{"name":"Kimchi","quantity":10001}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "negative", body: `{"name":"Kimchi","quantity":-1}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "maximum", body: `{"name":"Kimchi","quantity":10000}`, wantStatus: http.StatusCreated},
		{name: "merge over maximum", body: `{"name":"kimchi","quantity":1}`, wantStatus: http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, srv, http.MethodPost, "/api/cart/items", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode, string(body))
		})
	}

	resp, body := do(t, srv, http.MethodGet, "/api/quote", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "120000000", field(t, body, "subtotal"))
}

func TestCreatePayment_WalletIndexOutOfRange(t *testing.T) {
	srv := newServer(t)

	resp, _ := do(t, srv, http.MethodPost, "/api/cart/items", `{"name":"Kimchi"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for _, body := range []string{
		`{"wallet":0,"secret":"myaccount"}`,
		`{"wallet":4,"secret":"myaccount"}`,
		`{"wallet":-3,"secret":"myaccount"}`,
	} {
		resp, _ := do(t, srv, http.MethodPost, "/api/payments", body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, body)
	}

	resp, body := do(t, srv, http.MethodGet, "/api/wallets", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"balance":5000000`)
}

func TestCreatePayment_InsufficientFunds(t *testing.T) {
	srv := newServer(t)

	resp, _ := do(t, srv, http.MethodPost, "/api/cart/items", `{"name":"Soju","quantity":200}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := do(t, srv, http.MethodPost, "/api/payments", `{"wallet":1,"secret":"myaccount","coupon":"abc"}`)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "insufficient funds", field(t, body, "message"))
}

func TestCreatePayment_RateLimited(t *testing.T) {
	srv := newServer(t, httpmiddleware.RateLimit(httpmiddleware.RateLimitConfig{
		Max:    2,
		Window: time.Minute,
	}))

	for range 2 {
		resp, _ := do(t, srv, http.MethodPost, "/api/payments", `{"wallet":1,"secret":"guess"}`)
		require.Equal(t, http.StatusConflict, resp.StatusCode)
	}
	resp, _ := do(t, srv, http.MethodPost, "/api/payments", `{"wallet":1,"secret":"guess"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// Other routes are not limited.
	resp, _ = do(t, srv, http.MethodGet, "/api/cart", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
