package handlers

import (
	stallerrors "github.com/stallkit/stall/errors"
	"github.com/stallkit/stall/market/account"
	"github.com/stallkit/stall/market/catalog"
	"github.com/stallkit/stall/web"
)

// ProfileHandler serves the public seller pages. Its catch-all
// "/{username}" route is registered after every literal route so it
// cannot shadow them.
type ProfileHandler struct {
	Users    account.Repository
	Products catalog.Repository
}

// Show lists a seller's published products. The optional {slug?}
// segment narrows the page to a single product.
func (h *ProfileHandler) Show(req *web.Request) (*web.Response, error) {
	user, ok := h.Users.ByUsername(req.Param("username"))
	if !ok {
		return stallerrors.Respond(req, stallerrors.CodeResourceNotFound), nil
	}

	if req.HasParam("slug") {
		product, ok := h.Products.BySlug(user.ID, req.Param("slug"))
		if !ok {
			return stallerrors.Respond(req, stallerrors.CodeResourceNotFound), nil
		}
		return web.JSON(200, map[string]any{
			"seller":  user.Username,
			"product": product,
		}), nil
	}

	return web.JSON(200, map[string]any{
		"seller":   user.Username,
		"joined":   user.CreatedAt,
		"products": h.Products.BySeller(user.ID),
	}), nil
}
