package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kdelights/internal/domain/cart"
	"github.com/xenking/kdelights/internal/domain/menu"
)

const maxBodySize = 4 << 10

// ListMenu serves GET /api/menu?category=food|drink.
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	var c menu.Category
	if raw := r.URL.Query().Get("category"); raw != "" {
		parsed, ok := menu.ParseCategory(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown category "+strconv.Quote(raw))
			return
		}
		c = parsed
	}

	items := h.reg.ListMenu(c)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, it := range items {
				encodeItem(e, it)
			}
		})
	})
}

// GetCart serves GET /api/cart.
func (h *Handler) GetCart(w http.ResponseWriter, _ *http.Request) {
	lines := h.reg.Lines()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, lines) })
}

type addItemReq struct {
	Name     string
	Quantity int
}

func decodeAddItem(w http.ResponseWriter, r *http.Request) (addItemReq, error) {
	req := addItemReq{Quantity: 1}
	d := jx.Decode(http.MaxBytesReader(w, r.Body, maxBodySize), 512)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "name":
			req.Name, err = d.Str()
		case "quantity":
			req.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	return req, err
}

// AddCartItem serves POST /api/cart/items {"name","quantity"}.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAddItem(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	if _, err := h.reg.AddToCart(req.Name, req.Quantity); err != nil {
		switch {
		case errors.Is(err, menu.ErrNotFound):
			writeError(w, http.StatusNotFound, "menu item "+strconv.Quote(req.Name)+" not found")
		case errors.Is(err, cart.ErrInvalidQuantity):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	lines := h.reg.Lines()
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeCart(e, lines) })
}

// RemoveCartItem serves DELETE /api/cart/items/{index} with a 1-based index.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be a number")
		return
	}
	if err := h.reg.RemoveFromCart(index - 1); err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	lines := h.reg.Lines()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, lines) })
}

// ClearCart serves DELETE /api/cart.
func (h *Handler) ClearCart(w http.ResponseWriter, _ *http.Request) {
	h.reg.ClearCart()
	w.WriteHeader(http.StatusNoContent)
}
