package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stallkit/stall/market/catalog"
	"github.com/stallkit/stall/session"
	"github.com/stallkit/stall/web"

	"github.com/stallkit/stall/container"
)

func testSession(t *testing.T) *session.Session {
	t.Helper()
	store := session.NewMemoryStore(time.Hour)
	t.Cleanup(store.Close)
	m := session.NewManager(store, "sid", "test-secret", time.Hour, false)

	var sess *session.Session
	req := web.NewRequest("GET", "/", nil, nil)
	_, err := web.RunChain(container.New(), []web.MiddlewareRef{web.Wrap(m)}, req, func() (*web.Response, error) {
		sess = session.FromRequest(req)
		return web.NoContent(), nil
	})
	require.NoError(t, err)
	require.NotNil(t, sess)
	return sess
}

func TestFromSessionCreatesOnce(t *testing.T) {
	sess := testSession(t)

	c := FromSession(sess)
	require.NotNil(t, c)
	assert.True(t, c.Empty())

	c.Add("p-1", 2)
	again := FromSession(sess)
	assert.Same(t, c, again, "cart is stable within a session")
	assert.Equal(t, 2, again.Count())

	Clear(sess)
	fresh := FromSession(sess)
	assert.True(t, fresh.Empty())
}

func TestCartMutations(t *testing.T) {
	c := &Cart{Items: make(map[string]int)}

	c.Add("p-1", 1)
	c.Add("p-1", 2)
	c.Add("p-2", 1)
	c.Add("p-3", 0)
	c.Add("p-3", -5)

	assert.Equal(t, 3, c.Items["p-1"])
	assert.Equal(t, 4, c.Count())
	assert.NotContains(t, c.Items, "p-3")

	c.SetQuantity("p-1", 1)
	assert.Equal(t, 1, c.Items["p-1"])
	c.SetQuantity("p-2", 0)
	assert.NotContains(t, c.Items, "p-2")

	c.Remove("p-1")
	assert.True(t, c.Empty())
}

func publish(t *testing.T, repo catalog.Repository, name string, price int64) *catalog.Product {
	t.Helper()
	svc := catalog.NewService(repo, t.TempDir())
	p, err := svc.Publish(catalog.PublishInput{SellerID: "s-1", Name: name, PriceCents: price}, nil, nil)
	require.NoError(t, err)
	return p
}

func TestLinesAndTotal(t *testing.T) {
	repo := catalog.NewMemoryRepository()
	mug := publish(t, repo, "Mug Sticker", 300)
	pack := publish(t, repo, "Icon Pack", 500)

	svc := NewService(repo)
	c := &Cart{Items: map[string]int{mug.ID: 2, pack.ID: 1}}

	lines := svc.Lines(c)
	require.Len(t, lines, 2)
	assert.Equal(t, int64(1100), svc.Total(c))

	for _, line := range lines {
		if line.Product.ID == mug.ID {
			assert.Equal(t, 2, line.Quantity)
			assert.Equal(t, int64(600), line.Subtotal)
		}
	}
}

func TestLinesDropVanishedProducts(t *testing.T) {
	repo := catalog.NewMemoryRepository()
	mug := publish(t, repo, "Mug Sticker", 300)
	gone := publish(t, repo, "Icon Pack", 500)
	require.True(t, repo.Delete(gone.ID))

	svc := NewService(repo)
	c := &Cart{Items: map[string]int{mug.ID: 1, gone.ID: 3}}

	lines := svc.Lines(c)
	require.Len(t, lines, 1)
	assert.Equal(t, mug.ID, lines[0].Product.ID)
	assert.NotContains(t, c.Items, gone.ID, "vanished product is pruned from the cart")
	assert.Equal(t, int64(300), svc.Total(c))
}
