// Package hub pushes order events to connected seller dashboards over
// WebSocket. All hub state is owned by the run loop; the exported
// methods communicate with it through channels only.
package hub

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stallkit/stall/market/order"
)

// Event is one message pushed to a dashboard.
type Event struct {
	Type     string         `json:"type"`
	Data     map[string]any `json:"data,omitempty"`
	SellerID string         `json:"-"`
}

type countRequest struct {
	response chan int
}

// Hub maintains active dashboard connections and routes order events
// to the sellers they concern.
type Hub struct {
	clients    map[*Client]bool
	events     chan *Event
	register   chan *Client
	unregister chan *Client
	count      chan countRequest
	logger     *zap.Logger

	shutdown     chan struct{}
	shutdownDone chan struct{}
	stopOnce     sync.Once
}

// NewHub creates a hub. Call Run in its own goroutine.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:      make(map[*Client]bool),
		events:       make(chan *Event, 256),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		count:        make(chan countRequest),
		logger:       logger,
		shutdown:     make(chan struct{}),
		shutdownDone: make(chan struct{}),
	}
}

// Run is the hub's main loop; all state mutations happen here.
func (h *Hub) Run() {
	defer close(h.shutdownDone)

	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Info("dashboard connected", zap.String("seller_id", client.SellerID))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info("dashboard disconnected", zap.String("seller_id", client.SellerID))
			}

		case event := <-h.events:
			h.deliver(event)

		case req := <-h.count:
			req.response <- len(h.clients)

		case <-h.shutdown:
			h.logger.Info("closing dashboard connections", zap.Int("count", len(h.clients)))
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		}
	}
}

// deliver routes an event to the matching seller's connections, or to
// everyone when the event names no seller.
func (h *Hub) deliver(event *Event) {
	for client := range h.clients {
		if event.SellerID != "" && client.SellerID != event.SellerID {
			continue
		}
		select {
		case client.send <- event:
		default:
			h.logger.Warn("dashboard send buffer full, dropping connection",
				zap.String("seller_id", client.SellerID))
			go h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.shutdown:
	}
}

// PublishOrderPlaced implements order.EventPublisher: every seller
// with a product in the order receives one event describing their
// share of it.
func (h *Hub) PublishOrderPlaced(o *order.Order) {
	sellers := make(map[string][]order.Item)
	for _, item := range o.Items {
		sellers[item.SellerID] = append(sellers[item.SellerID], item)
	}

	for sellerID, items := range sellers {
		event := &Event{
			Type:     "order_placed",
			SellerID: sellerID,
			Data: map[string]any{
				"order_id":    o.ID,
				"status":      o.Status,
				"items":       items,
				"total_cents": o.TotalCents,
				"placed_at":   o.CreatedAt,
			},
		}
		select {
		case h.events <- event:
		default:
			h.logger.Warn("event buffer full, dropping order event", zap.String("order_id", o.ID))
		}
	}
}

// ConnectedClients returns the number of connected dashboards.
func (h *Hub) ConnectedClients() int {
	req := countRequest{response: make(chan int)}
	select {
	case h.count <- req:
		return <-req.response
	case <-h.shutdown:
		return 0
	}
}

// Shutdown stops the run loop, waiting up to timeout for it to drain.
// Safe to call more than once.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.stopOnce.Do(func() { close(h.shutdown) })
	select {
	case <-h.shutdownDone:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("hub shutdown timed out after %v", timeout)
	}
}
