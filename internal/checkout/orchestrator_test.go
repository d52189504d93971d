package checkout

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"venezia-storefront/internal/cart"
	"venezia-storefront/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrdersAPI is a mock implementation of the OrdersAPI interface
type MockOrdersAPI struct {
	mock.Mock
}

func (m *MockOrdersAPI) CreateOrder(ctx context.Context, draft OrderDraft) (*CreatedOrder, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CreatedOrder), args.Error(1)
}

// MockPaymentsAPI is a mock implementation of the PaymentsAPI interface
type MockPaymentsAPI struct {
	mock.Mock
}

func (m *MockPaymentsAPI) InitWompiTransaction(ctx context.Context, orderID int64) (*GatewayParams, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GatewayParams), args.Error(1)
}

// MockWidget is a mock implementation of the Widget interface
type MockWidget struct {
	mock.Mock
}

func (m *MockWidget) Open(ctx context.Context, params *GatewayParams) (*TransactionResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TransactionResult), args.Error(1)
}

type fakeIdentity struct{ user *session.User }

func (f fakeIdentity) Current() *session.User { return f.user }

type fakeCart struct {
	items   []cart.Item
	cleared bool
}

func (f *fakeCart) Items() []cart.Item        { return f.items }
func (f *fakeCart) Refresh(_ context.Context) {}
func (f *fakeCart) ClearLocal()               { f.items = nil; f.cleared = true }

type fakeNavigator struct {
	urls          []string
	cartClearedAt []bool
	cartRef       *fakeCart
	err           error
}

func (f *fakeNavigator) OpenExternal(_ context.Context, u string) error {
	f.urls = append(f.urls, u)
	if f.cartRef != nil {
		f.cartClearedAt = append(f.cartClearedAt, f.cartRef.cleared)
	}
	return f.err
}

type fakePrompter struct {
	choice       *MethodChoice
	choiceErr    error
	mode         Mode
	retryAnswers []bool
}

func (f *fakePrompter) SelectMethod(_ context.Context, _ ShippingSummary) (*MethodChoice, error) {
	return f.choice, f.choiceErr
}

func (f *fakePrompter) SelectMode(_ context.Context) (Mode, error) {
	return f.mode, nil
}

func (f *fakePrompter) RetryDeclined(_ context.Context) (bool, error) {
	if len(f.retryAnswers) == 0 {
		return false, nil
	}
	ans := f.retryAnswers[0]
	f.retryAnswers = f.retryAnswers[1:]
	return ans, nil
}

// codedError mimics the API client's business-rule error shape.
type codedError struct{ code string }

func (e *codedError) Error() string     { return e.code }
func (e *codedError) ErrorCode() string { return e.code }

func completeUser() *session.User {
	return &session.User{
		ID:     7,
		Email:  "cliente@veneziapizzas.co",
		RoleID: session.RoleClient,
		Profile: session.Profile{
			Address: "Calle 10 # 4-21",
			City:    "Bogotá",
			Phone:   "3001234567",
		},
	}
}

func filledCart() *fakeCart {
	return &fakeCart{items: []cart.Item{
		{ID: 1, Quantity: 2, UnitPrice: 50000, StockMax: 10},
		{ID: 2, Quantity: 1, UnitPrice: 30000, StockMax: 5},
	}}
}

func validParams() *GatewayParams {
	return &GatewayParams{
		PublicKey:     "pub_test_abc",
		Currency:      "COP",
		AmountInCents: 13000000,
		Reference:     "VENEZIA-55-1",
		RedirectURL:   "https://veneziapizzas.co/client/gracias",
		Signature: &GatewaySignature{
			Integrity:      "deadbeef",
			ExpirationTime: "2026-08-28T20:00:00Z",
		},
	}
}

type fixture struct {
	orders   *MockOrdersAPI
	payments *MockPaymentsAPI
	widget   *MockWidget
	nav      *fakeNavigator
	prompter *fakePrompter
	cart     *fakeCart
	orch     *Orchestrator
}

func newFixture(user *session.User, c *fakeCart, p *fakePrompter, envHost string) *fixture {
	f := &fixture{
		orders:   new(MockOrdersAPI),
		payments: new(MockPaymentsAPI),
		widget:   new(MockWidget),
		nav:      &fakeNavigator{cartRef: c},
		prompter: p,
		cart:     c,
	}
	f.orch = NewOrchestrator(
		fakeIdentity{user}, c, f.orders, f.payments, f.widget, f.nav, p,
		"https://checkout.wompi.co/p/", envHost,
	)
	return f
}

func TestRun_NotAuthenticated(t *testing.T) {
	f := newFixture(nil, filledCart(), &fakePrompter{}, "api.veneziapizzas.co")

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateTerminalError, res.State)
	assert.Equal(t, RouteLogin, res.Route)
	var pre *PreconditionError
	assert.ErrorAs(t, res.Err, &pre)
	f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestRun_IncompleteProfileBlocksBeforeAPI(t *testing.T) {
	user := completeUser()
	user.Profile.Phone = ""
	f := newFixture(user, filledCart(), &fakePrompter{}, "api.veneziapizzas.co")

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateTerminalError, res.State)
	assert.Equal(t, RouteProfile, res.Route)
	f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestRun_EmptyCart(t *testing.T) {
	f := newFixture(completeUser(), &fakeCart{}, &fakePrompter{}, "api.veneziapizzas.co")

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, res.Err, ErrCartEmpty)
	f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestRun_CancelledAtMethodSelection(t *testing.T) {
	f := newFixture(completeUser(), filledCart(), &fakePrompter{choice: nil}, "api.veneziapizzas.co")

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateTerminalCancelled, res.State)
	assert.Nil(t, res.Err)
	assert.False(t, f.cart.cleared)
	f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestRun_ManualMethodClearsCart(t *testing.T) {
	p := &fakePrompter{choice: &MethodChoice{Method: MethodCash, Note: "sin cebolla"}}
	f := newFixture(completeUser(), filledCart(), p, "api.veneziapizzas.co")

	f.orders.On("CreateOrder", mock.Anything, mock.MatchedBy(func(d OrderDraft) bool {
		return d.Method == MethodCash && d.Note == "sin cebolla" &&
			d.Address == "Calle 10 # 4-21" && d.City == "Bogotá"
	})).Return(&CreatedOrder{ID: 55, Status: "pendiente"}, nil).Once()

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateTerminalSuccess, res.State)
	assert.Equal(t, RouteOrders, res.Route)
	assert.Equal(t, int64(55), res.OrderID)
	assert.True(t, f.cart.cleared)
	f.payments.AssertNotCalled(t, "InitWompiTransaction", mock.Anything, mock.Anything)
	f.orders.AssertExpectations(t)
}

func TestRun_CreateFailureKeepsCart(t *testing.T) {
	p := &fakePrompter{choice: &MethodChoice{Method: MethodTransfer}}
	f := newFixture(completeUser(), filledCart(), p, "api.veneziapizzas.co")

	f.orders.On("CreateOrder", mock.Anything, mock.Anything).
		Return(nil, errors.New("502 bad gateway")).Once()

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateTerminalError, res.State)
	assert.Equal(t, RouteNone, res.Route)
	assert.False(t, f.cart.cleared)
	assert.Len(t, f.cart.Items(), 2)
	// Exactly one creation attempt.
	f.orders.AssertNumberOfCalls(t, "CreateOrder", 1)
}

func TestRun_ProfileIncompleteCodeRoutesToProfile(t *testing.T) {
	p := &fakePrompter{choice: &MethodChoice{Method: MethodCash}}
	f := newFixture(completeUser(), filledCart(), p, "api.veneziapizzas.co")

	f.orders.On("CreateOrder", mock.Anything, mock.Anything).
		Return(nil, &codedError{code: CodeProfileIncomplete}).Once()

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RouteProfile, res.Route)
	assert.False(t, f.cart.cleared)
}

func TestRun_MissingSignatureIsConfigurationError(t *testing.T) {
	p := &fakePrompter{choice: &MethodChoice{Method: MethodWompi}, mode: ModeWidget}
	f := newFixture(completeUser(), filledCart(), p, "api.veneziapizzas.co")

	params := validParams()
	params.Signature = nil

	f.orders.On("CreateOrder", mock.Anything, mock.Anything).
		Return(&CreatedOrder{ID: 55, Status: "pendiente"}, nil).Once()
	f.payments.On("InitWompiTransaction", mock.Anything, int64(55)).Return(params, nil).Once()

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateTerminalError, res.State)
	var cfg *ConfigurationError
	require.ErrorAs(t, res.Err, &cfg)
	assert.Contains(t, cfg.Missing, "signature")

	// Neither integration path may be attempted.
	f.widget.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
	assert.Empty(t, f.nav.urls)
}

func TestRun_WidgetApprovedClearsCartOnce(t *testing.T) {
	p := &fakePrompter{choice: &MethodChoice{Method: MethodWompi}, mode: ModeWidget}
	f := newFixture(completeUser(), filledCart(), p, "api.veneziapizzas.co")

	f.orders.On("CreateOrder", mock.Anything, mock.Anything).
		Return(&CreatedOrder{ID: 55, Status: "pendiente"}, nil).Once()
	f.payments.On("InitWompiTransaction", mock.Anything, int64(55)).Return(validParams(), nil).Once()
	f.widget.On("Open", mock.Anything, mock.Anything).
		Return(&TransactionResult{ID: "tx-1", Status: TxApproved}, nil).Once()

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateTerminalSuccess, res.State)
	assert.Equal(t, RouteOrders, res.Route)
	assert.True(t, f.cart.cleared)
	f.widget.AssertNumberOfCalls(t, "Open", 1)
}

func TestRun_WidgetDeclinedKeepsCart(t *testing.T) {
	p := &fakePrompter{choice: &MethodChoice{Method: MethodWompi}, mode: ModeWidget}
	f := newFixture(completeUser(), filledCart(), p, "api.veneziapizzas.co")

	f.orders.On("CreateOrder", mock.Anything, mock.Anything).
		Return(&CreatedOrder{ID: 55, Status: "pendiente"}, nil).Once()
	f.payments.On("InitWompiTransaction", mock.Anything, int64(55)).Return(validParams(), nil).Once()
	f.widget.On("Open", mock.Anything, mock.Anything).
		Return(&TransactionResult{ID: "tx-2", Status: TxDeclined}, nil).Once()

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateTerminalError, res.State)
	var declined *GatewayDeclinedError
	require.ErrorAs(t, res.Err, &declined)
	assert.Equal(t, "tx-2", declined.TransactionID)
	assert.False(t, f.cart.cleared)
}

func TestRun_WidgetDeclinedThenRetryApproved(t *testing.T) {
	p := &fakePrompter{
		choice:       &MethodChoice{Method: MethodWompi},
		mode:         ModeWidget,
		retryAnswers: []bool{true},
	}
	f := newFixture(completeUser(), filledCart(), p, "api.veneziapizzas.co")

	f.orders.On("CreateOrder", mock.Anything, mock.Anything).
		Return(&CreatedOrder{ID: 55, Status: "pendiente"}, nil).Once()
	f.payments.On("InitWompiTransaction", mock.Anything, int64(55)).Return(validParams(), nil).Once()
	f.widget.On("Open", mock.Anything, mock.Anything).
		Return(&TransactionResult{ID: "tx-2", Status: TxDeclined}, nil).Once()
	f.widget.On("Open", mock.Anything, mock.Anything).
		Return(&TransactionResult{ID: "tx-3", Status: TxApproved}, nil).Once()

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateTerminalSuccess, res.State)
	assert.True(t, f.cart.cleared)
	f.widget.AssertNumberOfCalls(t, "Open", 2)
}

func TestRun_IndeterminateStatusIsOptimisticHandoff(t *testing.T) {
	p := &fakePrompter{choice: &MethodChoice{Method: MethodWompi}, mode: ModeWidget}
	f := newFixture(completeUser(), filledCart(), p, "api.veneziapizzas.co")

	f.orders.On("CreateOrder", mock.Anything, mock.Anything).
		Return(&CreatedOrder{ID: 55, Status: "pendiente"}, nil).Once()
	f.payments.On("InitWompiTransaction", mock.Anything, int64(55)).Return(validParams(), nil).Once()
	f.widget.On("Open", mock.Anything, mock.Anything).
		Return(&TransactionResult{ID: "tx-4", Status: "VOIDED"}, nil).Once()

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateTerminalSuccess, res.State)
	assert.Equal(t, RouteOrders, res.Route)
	assert.True(t, f.cart.cleared)
}

func TestRun_PrivateHostForcesRedirect(t *testing.T) {
	// Prompter would pick the widget, but a local host must never be asked.
	p := &fakePrompter{choice: &MethodChoice{Method: MethodWompi}, mode: ModeWidget}
	f := newFixture(completeUser(), filledCart(), p, "localhost:8000")

	f.orders.On("CreateOrder", mock.Anything, mock.Anything).
		Return(&CreatedOrder{ID: 55, Status: "pendiente"}, nil).Once()
	f.payments.On("InitWompiTransaction", mock.Anything, int64(55)).Return(validParams(), nil).Once()

	res, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateTerminalSuccess, res.State)
	f.widget.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
	require.Len(t, f.nav.urls, 1)

	parsed, perr := url.Parse(f.nav.urls[0])
	require.NoError(t, perr)
	q := parsed.Query()
	assert.Equal(t, "pub_test_abc", q.Get("public-key"))
	assert.Equal(t, "COP", q.Get("currency"))
	assert.Equal(t, "13000000", q.Get("amount-in-cents"))
	assert.Equal(t, "VENEZIA-55-1", q.Get("reference"))
	assert.Equal(t, "https://veneziapizzas.co/client/gracias", q.Get("redirect-url"))
	assert.Equal(t, "deadbeef", q.Get("signature:integrity"))
	assert.Equal(t, "2026-08-28T20:00:00Z", q.Get("signature:timestamp"))

	// Cart was cleared before control left the application.
	require.Len(t, f.nav.cartClearedAt, 1)
	assert.True(t, f.nav.cartClearedAt[0])
}

func TestRun_RejectsConcurrentAttempt(t *testing.T) {
	f := newFixture(completeUser(), filledCart(), &fakePrompter{}, "api.veneziapizzas.co")
	f.orch.inFlight.Store(true)

	_, err := f.orch.Run(context.Background())
	assert.ErrorIs(t, err, ErrAttemptInFlight)
}

func TestRetryPayment_NoNewOrder(t *testing.T) {
	p := &fakePrompter{mode: ModeWidget}
	f := newFixture(completeUser(), &fakeCart{}, p, "api.veneziapizzas.co")

	f.payments.On("InitWompiTransaction", mock.Anything, int64(77)).Return(validParams(), nil).Once()
	f.widget.On("Open", mock.Anything, mock.Anything).
		Return(&TransactionResult{ID: "tx-9", Status: TxApproved}, nil).Once()

	res, err := f.orch.RetryPayment(context.Background(), 77)
	require.NoError(t, err)

	assert.Equal(t, StateTerminalSuccess, res.State)
	assert.Equal(t, int64(77), res.OrderID)
	f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestHostedCheckoutURL_ExactParameterNames(t *testing.T) {
	u, err := HostedCheckoutURL("https://checkout.wompi.co/p/", validParams())
	require.NoError(t, err)

	for _, key := range []string{
		"public-key", "currency", "amount-in-cents", "reference",
		"redirect-url", "signature%3Aintegrity", "signature%3Atimestamp",
	} {
		assert.True(t, strings.Contains(u, key+"="), "expected %s in %s", key, u)
	}
	// No snake_case leakage.
	assert.NotContains(t, u, "public_key")
	assert.NotContains(t, u, "amount_in_cents")
}

func TestPrivateHost(t *testing.T) {
	assert.True(t, PrivateHost("localhost"))
	assert.True(t, PrivateHost("localhost:8000"))
	assert.True(t, PrivateHost("127.0.0.1:9000"))
	assert.True(t, PrivateHost("192.168.1.20"))
	assert.True(t, PrivateHost("10.0.0.5:8000"))
	assert.True(t, PrivateHost("venezia.local"))
	assert.False(t, PrivateHost("api.veneziapizzas.co"))
	assert.False(t, PrivateHost("checkout.wompi.co"))
}

func TestGatewayParams_MissingFields(t *testing.T) {
	p := &GatewayParams{}
	missing := p.MissingFields()
	assert.ElementsMatch(t, []string{
		"public_key", "currency", "amount_in_cents", "reference",
		"redirect_url", "signature",
	}, missing)

	p = validParams()
	p.Signature.ExpirationTime = ""
	assert.Equal(t, []string{"signature.expiration_time"}, p.MissingFields())

	assert.Empty(t, validParams().MissingFields())
}
