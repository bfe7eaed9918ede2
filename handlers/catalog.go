package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	stallerrors "github.com/stallkit/stall/errors"
	"github.com/stallkit/stall/market/catalog"
	"github.com/stallkit/stall/session"
	"github.com/stallkit/stall/web"
)

// CatalogHandler serves product publishing and the seller's own
// listing. Its routes sit behind the auth gate.
type CatalogHandler struct {
	Catalog  *catalog.Service
	Products catalog.Repository
	Logger   *zap.Logger
}

// Publish records a new product from the posted multipart form. The
// image and the downloadable file arrive as spooled descriptors.
func (h *CatalogHandler) Publish(req *web.Request) (*web.Response, error) {
	sess := session.FromRequest(req)

	price, err := strconv.ParseInt(req.BodyParam("price_cents"), 10, 64)
	if err != nil {
		return stallerrors.RespondMessage(req, stallerrors.CodeInvalidFormat, "price_cents must be an integer"), nil
	}

	product, err := h.Catalog.Publish(catalog.PublishInput{
		SellerID:    sess.UserID(),
		Name:        req.BodyParam("name"),
		Description: req.BodyParam("description"),
		PriceCents:  price,
	}, req.File("image"), req.File("file"))
	if err != nil {
		return stallerrors.RespondMessage(req, stallerrors.CodeValidationFailed, err.Error()), nil
	}

	h.Logger.Info("product published",
		zap.String("product_id", product.ID),
		zap.String("seller_id", product.SellerID),
		zap.String("slug", product.Slug))
	return web.JSON(http.StatusCreated, product), nil
}

// Mine lists the authenticated seller's products.
func (h *CatalogHandler) Mine(req *web.Request) ([]*catalog.Product, error) {
	sess := session.FromRequest(req)
	return h.Products.BySeller(sess.UserID()), nil
}

// Delete removes one of the seller's own products.
func (h *CatalogHandler) Delete(req *web.Request) (*web.Response, error) {
	sess := session.FromRequest(req)
	id := req.Param("id")

	product, ok := h.Products.ByID(id)
	if !ok {
		return stallerrors.Respond(req, stallerrors.CodeResourceNotFound), nil
	}
	if product.SellerID != sess.UserID() {
		return stallerrors.Respond(req, stallerrors.CodeForbidden), nil
	}

	h.Products.Delete(id)
	return web.NoContent(), nil
}
