package devserver

import (
	"context"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"venezia-storefront/internal/api"
	"venezia-storefront/internal/cart"
	"venezia-storefront/internal/checkout"
	"venezia-storefront/internal/config"
	"venezia-storefront/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenBox is a mutable TokenSource for tests that log in mid-flight.
type tokenBox struct {
	mu  sync.Mutex
	tok string
}

func (b *tokenBox) Token() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tok
}

func (b *tokenBox) Set(tok string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tok = tok
}

type staticIdentity struct{ user *session.User }

func (s *staticIdentity) Current() *session.User { return s.user }

type scriptedPrompter struct {
	method checkout.PaymentMethod
	note   string
	mode   checkout.Mode
}

func (p *scriptedPrompter) SelectMethod(ctx context.Context, _ checkout.ShippingSummary) (*checkout.MethodChoice, error) {
	return &checkout.MethodChoice{Method: p.method, Note: p.note}, nil
}

func (p *scriptedPrompter) SelectMode(ctx context.Context) (checkout.Mode, error) {
	return p.mode, nil
}

func (p *scriptedPrompter) RetryDeclined(ctx context.Context) (bool, error) {
	return false, nil
}

type capturingNavigator struct{ opened string }

func (n *capturingNavigator) OpenExternal(ctx context.Context, u string) error {
	n.opened = u
	return nil
}

func startBackend(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:            "integration-secret",
		WompiPublicKey:       "pub_test_integration",
		WompiIntegritySecret: "integrity-secret",
		WompiRedirectURL:     "http://localhost:5173/client/gracias",
	}
	ts := httptest.NewServer(NewServer(cfg).Router())
	t.Cleanup(ts.Close)
	return ts
}

// TestFullCheckoutAgainstBackend runs the real client stack — API client,
// cart manager, checkout orchestrator — against the in-memory backend.
func TestFullCheckoutAgainstBackend(t *testing.T) {
	ts := startBackend(t)
	ctx := context.Background()

	tokens := &tokenBox{}
	client := api.NewClient(ts.URL, tokens)

	token, user, err := client.Login(ctx, "cliente@veneziapizzas.co", "cliente123")
	require.NoError(t, err)
	require.NotNil(t, user)
	tokens.Set(token)

	manager := cart.NewManager(client)
	manager.OnIdentityChange(ctx, true)

	require.NoError(t, manager.Add(ctx, 11, 2)) // 2 x 50000
	require.NoError(t, manager.Add(ctx, 22, 1)) // 1 x 30000
	assert.Equal(t, 3, manager.Count())
	assert.Equal(t, 130000.0, manager.Subtotal())

	orch := checkout.NewOrchestrator(
		&staticIdentity{user: user},
		manager,
		client,
		client,
		nil, // widget never reached for a manual method
		&capturingNavigator{},
		&scriptedPrompter{method: checkout.MethodCash, note: "timbre dañado"},
		"https://checkout.wompi.co/p/",
		"localhost:8000",
	)

	res, err := orch.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, checkout.StateTerminalSuccess, res.State)
	assert.Equal(t, checkout.RouteOrders, res.Route)
	require.NotZero(t, res.OrderID)

	// The backend consumed the cart; the local snapshot was cleared and a
	// refresh confirms the server agrees.
	assert.Zero(t, manager.Count())
	manager.Refresh(ctx)
	assert.Zero(t, manager.Count())

	orders, err := client.ListOrders(ctx, "")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, res.OrderID, orders[0].ID)
	assert.Equal(t, 130000.0, orders[0].Total)
	assert.Equal(t, "efectivo", orders[0].Method)
	assert.Equal(t, "timbre dañado", orders[0].Note)
}

// TestGatewayCheckoutAgainstBackend drives the wompi path end to end. The
// private env host forces redirect mode, so the attempt terminates with a
// handoff to the hosted checkout URL built from the backend's signed params.
func TestGatewayCheckoutAgainstBackend(t *testing.T) {
	ts := startBackend(t)
	ctx := context.Background()

	tokens := &tokenBox{}
	client := api.NewClient(ts.URL, tokens)

	token, user, err := client.Login(ctx, "cliente@veneziapizzas.co", "cliente123")
	require.NoError(t, err)
	tokens.Set(token)

	manager := cart.NewManager(client)
	manager.OnIdentityChange(ctx, true)
	require.NoError(t, manager.Add(ctx, 33, 2)) // 2 x 42000 at 10% off = 75600

	nav := &capturingNavigator{}
	orch := checkout.NewOrchestrator(
		&staticIdentity{user: user},
		manager,
		client,
		client,
		nil,
		nav,
		&scriptedPrompter{method: checkout.MethodWompi},
		"https://checkout.wompi.co/p/",
		"localhost:8000", // private host: redirect mode, widget untouched
	)

	res, err := orch.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, checkout.StateTerminalSuccess, res.State)
	require.NotEmpty(t, nav.opened)

	opened, err := url.Parse(nav.opened)
	require.NoError(t, err)
	assert.Equal(t, "checkout.wompi.co", opened.Host)

	q := opened.Query()
	assert.Equal(t, "pub_test_integration", q.Get("public-key"))
	assert.Equal(t, "COP", q.Get("currency"))
	assert.Equal(t, "7560000", q.Get("amount-in-cents"))
	assert.NotEmpty(t, q.Get("signature:integrity"))
	assert.NotEmpty(t, q.Get("signature:timestamp"))

	// The order stays pending until the gateway settles it out-of-band.
	orders, err := client.ListOrders(ctx, "pendiente")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, res.OrderID, orders[0].ID)
}

// TestUnauthenticatedClientAgainstBackend checks the 401 mapping through the
// real transport.
func TestUnauthenticatedClientAgainstBackend(t *testing.T) {
	ts := startBackend(t)

	client := api.NewClient(ts.URL, &tokenBox{})
	_, err := client.GetCart(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthenticated)
}
