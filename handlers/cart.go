package handlers

import (
	"net/http"
	"strconv"

	stallerrors "github.com/stallkit/stall/errors"
	"github.com/stallkit/stall/market/cart"
	"github.com/stallkit/stall/market/catalog"
	"github.com/stallkit/stall/session"
	"github.com/stallkit/stall/web"
)

// CartHandler serves the session-bound cart.
type CartHandler struct {
	Carts    *cart.Service
	Products catalog.Repository
}

// Show renders the cart with priced lines.
func (h *CartHandler) Show(req *web.Request) (*web.Response, error) {
	c := cart.FromSession(session.FromRequest(req))
	return web.JSON(http.StatusOK, map[string]any{
		"lines":       h.Carts.Lines(c),
		"count":       c.Count(),
		"total_cents": h.Carts.Total(c),
	}), nil
}

// Add puts a product in the cart.
func (h *CartHandler) Add(req *web.Request) (*web.Response, error) {
	productID := req.BodyParam("product_id")
	if _, ok := h.Products.ByID(productID); !ok {
		return stallerrors.Respond(req, stallerrors.CodeResourceNotFound), nil
	}

	qty := 1
	if raw := req.BodyParam("quantity"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return stallerrors.RespondMessage(req, stallerrors.CodeInvalidFormat, "quantity must be a positive integer"), nil
		}
		qty = parsed
	}

	c := cart.FromSession(session.FromRequest(req))
	c.Add(productID, qty)
	return web.SeeOther("/cart"), nil
}

// Remove drops a product from the cart.
func (h *CartHandler) Remove(req *web.Request) (*web.Response, error) {
	c := cart.FromSession(session.FromRequest(req))
	c.Remove(req.Param("id"))
	return web.SeeOther("/cart"), nil
}
