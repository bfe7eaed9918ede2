// Package cart provides the session-bound shopping cart.
package cart

import (
	"github.com/stallkit/stall/market/catalog"
	"github.com/stallkit/stall/session"
)

// sessionKey is where the cart lives inside the visitor's session.
const sessionKey = "cart"

// Cart maps product ids to quantities. It lives in the session, so it
// survives across requests without a database round trip.
type Cart struct {
	Items map[string]int `json:"items"`
}

// Line is one cart entry joined with its product.
type Line struct {
	Product  *catalog.Product `json:"product"`
	Quantity int              `json:"quantity"`
	Subtotal int64            `json:"subtotal_cents"`
}

// FromSession returns the visitor's cart, creating an empty one in
// the session on first use.
func FromSession(sess *session.Session) *Cart {
	if c, ok := sess.Get(sessionKey).(*Cart); ok {
		return c
	}
	c := &Cart{Items: make(map[string]int)}
	sess.Set(sessionKey, c)
	return c
}

// Clear removes the cart from the session.
func Clear(sess *session.Session) {
	sess.Delete(sessionKey)
}

// Add increments the quantity for a product.
func (c *Cart) Add(productID string, qty int) {
	if qty <= 0 {
		return
	}
	c.Items[productID] += qty
}

// SetQuantity pins a product's quantity; zero or less removes it.
func (c *Cart) SetQuantity(productID string, qty int) {
	if qty <= 0 {
		delete(c.Items, productID)
		return
	}
	c.Items[productID] = qty
}

// Remove drops a product from the cart.
func (c *Cart) Remove(productID string) {
	delete(c.Items, productID)
}

// Empty reports whether the cart holds no items.
func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

// Count returns the total item count across lines.
func (c *Cart) Count() int {
	n := 0
	for _, qty := range c.Items {
		n += qty
	}
	return n
}

// Service joins carts against the catalog to produce priced lines.
type Service struct {
	products catalog.Repository
}

// NewService creates a cart service.
func NewService(products catalog.Repository) *Service {
	return &Service{products: products}
}

// Lines resolves the cart's entries against the catalog. Products
// removed since they were added are silently dropped from the result
// and from the cart.
func (s *Service) Lines(c *Cart) []Line {
	lines := make([]Line, 0, len(c.Items))
	for id, qty := range c.Items {
		p, ok := s.products.ByID(id)
		if !ok {
			delete(c.Items, id)
			continue
		}
		lines = append(lines, Line{
			Product:  p,
			Quantity: qty,
			Subtotal: p.PriceCents * int64(qty),
		})
	}
	return lines
}

// Total sums the priced lines in cents.
func (s *Service) Total(c *Cart) int64 {
	var total int64
	for _, line := range s.Lines(c) {
		total += line.Subtotal
	}
	return total
}
