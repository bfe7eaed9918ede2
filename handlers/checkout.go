package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	stallerrors "github.com/stallkit/stall/errors"
	"github.com/stallkit/stall/market/cart"
	"github.com/stallkit/stall/market/order"
	"github.com/stallkit/stall/session"
	"github.com/stallkit/stall/web"
)

// CheckoutHandler turns the cart into an order through the configured
// payment gateway. Its routes sit behind the auth gate.
type CheckoutHandler struct {
	Orders *order.Service
	Repo   order.Repository
	Logger *zap.Logger
}

// Checkout charges the cart and records the order.
func (h *CheckoutHandler) Checkout(req *web.Request) (*web.Response, error) {
	sess := session.FromRequest(req)
	c := cart.FromSession(sess)

	placed, err := h.Orders.Checkout(sess.UserID(), c)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrCartEmpty):
			return stallerrors.Respond(req, stallerrors.CodeCartEmpty), nil
		case errors.Is(err, order.ErrDeclined):
			return stallerrors.Respond(req, stallerrors.CodePaymentDeclined), nil
		}
		return nil, err
	}

	h.Logger.Info("order placed",
		zap.String("order_id", placed.ID),
		zap.String("buyer_id", placed.BuyerID),
		zap.Int64("total_cents", placed.TotalCents),
		zap.String("gateway", placed.Gateway))
	return web.JSON(http.StatusCreated, placed), nil
}

// Mine lists the authenticated buyer's orders.
func (h *CheckoutHandler) Mine(req *web.Request) ([]*order.Order, error) {
	sess := session.FromRequest(req)
	return h.Repo.ByBuyer(sess.UserID()), nil
}

// Show returns one of the buyer's orders.
func (h *CheckoutHandler) Show(req *web.Request) (*web.Response, error) {
	sess := session.FromRequest(req)
	placed, ok := h.Repo.ByID(req.Param("id"))
	if !ok || placed.BuyerID != sess.UserID() {
		return stallerrors.Respond(req, stallerrors.CodeResourceNotFound), nil
	}
	return web.JSON(http.StatusOK, placed), nil
}
