// Package order records checkouts and charges them through a payment
// gateway strategy.
package order

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stallkit/stall/market/cart"
)

// Status is an order's lifecycle state.
type Status string

const (
	// StatusPaid means the gateway approved the charge.
	StatusPaid Status = "paid"
	// StatusPending means the gateway recorded the charge for later
	// settlement (bank transfer).
	StatusPending Status = "pending"
)

// Item is one purchased product snapshot. Prices are copied at
// checkout time so later catalog edits cannot rewrite history.
type Item struct {
	ProductID  string `json:"product_id"`
	SellerID   string `json:"seller_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

// Order is one recorded checkout.
type Order struct {
	ID         string    `json:"id"`
	BuyerID    string    `json:"buyer_id"`
	Items      []Item    `json:"items"`
	TotalCents int64     `json:"total_cents"`
	Status     Status    `json:"status"`
	Gateway    string    `json:"gateway"`
	GatewayRef string    `json:"gateway_ref"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository persists orders.
type Repository interface {
	Create(o *Order) error
	ByID(id string) (*Order, bool)
	ByBuyer(buyerID string) []*Order
}

// MemoryRepository is an in-process order store.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*Order
	byBuyer map[string][]*Order
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*Order),
		byBuyer: make(map[string][]*Order),
	}
}

// Create implements Repository.
func (r *MemoryRepository) Create(o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[o.ID] = o
	r.byBuyer[o.BuyerID] = append(r.byBuyer[o.BuyerID], o)
	return nil
}

// ByID implements Repository.
func (r *MemoryRepository) ByID(id string) (*Order, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byID[id]
	return o, ok
}

// ByBuyer implements Repository.
func (r *MemoryRepository) ByBuyer(buyerID string) []*Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Order, len(r.byBuyer[buyerID]))
	copy(out, r.byBuyer[buyerID])
	return out
}

// EventPublisher receives order events for delivery to interested
// sellers. The websocket hub implements it; a nop publisher is used
// in tests.
type EventPublisher interface {
	PublishOrderPlaced(o *Order)
}

// NopPublisher discards events.
type NopPublisher struct{}

// PublishOrderPlaced implements EventPublisher.
func (NopPublisher) PublishOrderPlaced(*Order) {}

// ErrCartEmpty is returned when checking out an empty cart.
var ErrCartEmpty = fmt.Errorf("cart is empty")

// Service turns a cart into a recorded, charged order.
type Service struct {
	repo      Repository
	carts     *cart.Service
	gateway   Gateway
	publisher EventPublisher
}

// NewService creates an order service charging through the given
// gateway.
func NewService(repo Repository, carts *cart.Service, gateway Gateway, publisher EventPublisher) *Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Service{repo: repo, carts: carts, gateway: gateway, publisher: publisher}
}

// Checkout prices the cart, charges the gateway, records the order,
// clears the cart, and publishes the order event. A declined charge
// leaves the cart untouched.
func (s *Service) Checkout(buyerID string, c *cart.Cart) (*Order, error) {
	lines := s.carts.Lines(c)
	if len(lines) == 0 {
		return nil, ErrCartEmpty
	}

	o := &Order{
		ID:        uuid.NewString(),
		BuyerID:   buyerID,
		Gateway:   s.gateway.Name(),
		CreatedAt: time.Now(),
	}
	for _, line := range lines {
		o.Items = append(o.Items, Item{
			ProductID:  line.Product.ID,
			SellerID:   line.Product.SellerID,
			Name:       line.Product.Name,
			Quantity:   line.Quantity,
			PriceCents: line.Product.PriceCents,
		})
		o.TotalCents += line.Subtotal
	}

	result, err := s.gateway.Charge(o)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	o.Status = result.Status
	o.GatewayRef = result.Reference

	if err := s.repo.Create(o); err != nil {
		return nil, fmt.Errorf("checkout: record order: %w", err)
	}

	c.Items = make(map[string]int)
	s.publisher.PublishOrderPlaced(o)
	return o, nil
}
