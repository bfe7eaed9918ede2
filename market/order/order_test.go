package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stallkit/stall/market/cart"
	"github.com/stallkit/stall/market/catalog"
)

type capturingPublisher struct {
	orders []*Order
}

func (p *capturingPublisher) PublishOrderPlaced(o *Order) {
	p.orders = append(p.orders, o)
}

type fixture struct {
	products catalog.Repository
	carts    *cart.Service
	orders   *MemoryRepository
	events   *capturingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	products := catalog.NewMemoryRepository()
	return &fixture{
		products: products,
		carts:    cart.NewService(products),
		orders:   NewMemoryRepository(),
		events:   &capturingPublisher{},
	}
}

func (f *fixture) publish(t *testing.T, sellerID, name string, price int64) *catalog.Product {
	t.Helper()
	svc := catalog.NewService(f.products, t.TempDir())
	p, err := svc.Publish(catalog.PublishInput{SellerID: sellerID, Name: name, PriceCents: price}, nil, nil)
	require.NoError(t, err)
	return p
}

func TestCheckoutPaid(t *testing.T) {
	f := newFixture(t)
	mug := f.publish(t, "s-1", "Mug Sticker", 300)
	pack := f.publish(t, "s-2", "Icon Pack", 500)

	svc := NewService(f.orders, f.carts, MockGateway{}, f.events)
	c := &cart.Cart{Items: map[string]int{mug.ID: 2, pack.ID: 1}}

	o, err := svc.Checkout("buyer-1", c)
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, o.Status)
	assert.Equal(t, "mock", o.Gateway)
	assert.NotEmpty(t, o.GatewayRef)
	assert.Equal(t, int64(1100), o.TotalCents)
	require.Len(t, o.Items, 2)

	assert.True(t, c.Empty(), "checkout clears the cart")

	stored, ok := f.orders.ByID(o.ID)
	require.True(t, ok)
	assert.Equal(t, o, stored)

	require.Len(t, f.events.orders, 1)
	assert.Equal(t, o.ID, f.events.orders[0].ID)
}

func TestCheckoutSnapshotsPrices(t *testing.T) {
	f := newFixture(t)
	mug := f.publish(t, "s-1", "Mug Sticker", 300)

	svc := NewService(f.orders, f.carts, MockGateway{}, nil)
	c := &cart.Cart{Items: map[string]int{mug.ID: 1}}

	o, err := svc.Checkout("buyer-1", c)
	require.NoError(t, err)

	mug.PriceCents = 9999
	assert.Equal(t, int64(300), o.Items[0].PriceCents, "order keeps the checkout-time price")
	assert.Equal(t, "s-1", o.Items[0].SellerID)
}

func TestCheckoutPendingTransfer(t *testing.T) {
	f := newFixture(t)
	mug := f.publish(t, "s-1", "Mug Sticker", 300)

	svc := NewService(f.orders, f.carts, TransferGateway{}, nil)
	c := &cart.Cart{Items: map[string]int{mug.ID: 1}}

	o, err := svc.Checkout("buyer-1", c)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "transfer", o.Gateway)
}

func TestCheckoutDeclinedKeepsCart(t *testing.T) {
	f := newFixture(t)
	mug := f.publish(t, "s-1", "Mug Sticker", 300)

	svc := NewService(f.orders, f.carts, DecliningGateway{}, f.events)
	c := &cart.Cart{Items: map[string]int{mug.ID: 1}}

	_, err := svc.Checkout("buyer-1", c)
	require.ErrorIs(t, err, ErrDeclined)

	assert.False(t, c.Empty(), "a declined charge leaves the cart intact")
	assert.Empty(t, f.orders.ByBuyer("buyer-1"))
	assert.Empty(t, f.events.orders)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.orders, f.carts, MockGateway{}, nil)

	_, err := svc.Checkout("buyer-1", &cart.Cart{Items: map[string]int{}})
	assert.ErrorIs(t, err, ErrCartEmpty)
}

func TestCheckoutCartOfVanishedProducts(t *testing.T) {
	f := newFixture(t)
	gone := f.publish(t, "s-1", "Icon Pack", 500)
	require.True(t, f.products.Delete(gone.ID))

	svc := NewService(f.orders, f.carts, MockGateway{}, nil)
	_, err := svc.Checkout("buyer-1", &cart.Cart{Items: map[string]int{gone.ID: 1}})
	assert.ErrorIs(t, err, ErrCartEmpty)
}

func TestGatewayFor(t *testing.T) {
	for name, want := range map[string]string{
		"":         "mock",
		"mock":     "mock",
		"transfer": "transfer",
		"decline":  "decline",
	} {
		g, err := GatewayFor(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, g.Name())
	}

	_, err := GatewayFor("paypal")
	assert.Error(t, err)
}

func TestOrdersByBuyer(t *testing.T) {
	f := newFixture(t)
	mug := f.publish(t, "s-1", "Mug Sticker", 300)
	svc := NewService(f.orders, f.carts, MockGateway{}, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.Checkout("buyer-1", &cart.Cart{Items: map[string]int{mug.ID: 1}})
		require.NoError(t, err)
	}
	_, err := svc.Checkout("buyer-2", &cart.Cart{Items: map[string]int{mug.ID: 1}})
	require.NoError(t, err)

	assert.Len(t, f.orders.ByBuyer("buyer-1"), 2)
	assert.Len(t, f.orders.ByBuyer("buyer-2"), 1)
}
