package handler

import (
	"net/http"
	"sync"

	"github.com/xenking/kdelights/internal/domain/receipt"
	"github.com/xenking/kdelights/internal/pos"
	"github.com/xenking/kdelights/pkg/httpmiddleware"
)

// Handler serves the register over HTTP. The register is not reentrant, so
// every request holds mu for its whole duration.
type Handler struct {
	mu       sync.Mutex
	reg      *pos.Register
	renderer *receipt.Renderer
}

// NewHandler constructs a Handler around one register session.
func NewHandler(reg *pos.Register, renderer *receipt.Renderer) *Handler {
	return &Handler{reg: reg, renderer: renderer}
}

// Mount registers the API routes on mux. payments wraps the payment route
// only, typically with a rate limiter.
func (h *Handler) Mount(mux *http.ServeMux, payments ...httpmiddleware.Middleware) {
	mux.HandleFunc("GET /api/menu", h.locked(h.ListMenu))
	mux.HandleFunc("GET /api/cart", h.locked(h.GetCart))
	mux.HandleFunc("POST /api/cart/items", h.locked(h.AddCartItem))
	mux.HandleFunc("DELETE /api/cart/items/{index}", h.locked(h.RemoveCartItem))
	mux.HandleFunc("DELETE /api/cart", h.locked(h.ClearCart))
	mux.HandleFunc("GET /api/quote", h.locked(h.Quote))
	mux.HandleFunc("GET /api/wallets", h.locked(h.ListWallets))
	mux.Handle("POST /api/payments", httpmiddleware.Wrap(h.locked(h.CreatePayment), payments...))
	mux.HandleFunc("GET /api/receipt", h.locked(h.GetReceipt))
}

func (h *Handler) locked(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		defer h.mu.Unlock()
		fn(w, r)
	}
}
