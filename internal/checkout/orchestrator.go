package checkout

import (
	"context"
	"errors"
	"sync/atomic"

	"venezia-storefront/internal/cart"
	"venezia-storefront/internal/logger"
	"venezia-storefront/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CodeProfileIncomplete is the distinguished business-rule code the backend
// returns when order creation is blocked on missing shipping data.
const CodeProfileIncomplete = "PROFILE_INCOMPLETE"

// OrderDraft is the order-creation request body.
type OrderDraft struct {
	Address    string        `json:"direccion_envio"`
	City       string        `json:"ciudad"`
	Phone      string        `json:"telefono"`
	PostalCode string        `json:"codigo_postal"`
	Method     PaymentMethod `json:"metodo_pago"`
	Note       string        `json:"notas_cliente"`
}

// CreatedOrder is the slice of the creation response the flow needs.
type CreatedOrder struct {
	ID     int64
	Status string
}

type OrdersAPI interface {
	CreateOrder(ctx context.Context, draft OrderDraft) (*CreatedOrder, error)
}

type PaymentsAPI interface {
	InitWompiTransaction(ctx context.Context, orderID int64) (*GatewayParams, error)
}

// Identity exposes the current authenticated user. The session store
// satisfies it.
type Identity interface {
	Current() *session.User
}

// CartStore is the slice of the cart manager the flow needs. The manager is
// the sole cart writer; the orchestrator never calls the cart API directly.
type CartStore interface {
	Items() []cart.Item
	Refresh(ctx context.Context)
	ClearLocal()
}

// Result is the terminal outcome of a checkout attempt. Err carries the
// tagged failure (PreconditionError, ConfigurationError, GatewayDeclinedError
// or an API error); Route tells the caller where to send the user.
type Result struct {
	State   State
	Route   Route
	OrderID int64
	Err     error
}

// Orchestrator drives a single checkout attempt through its state machine.
// All remote calls are awaited sequentially; a second attempt while one is
// in flight is rejected.
type Orchestrator struct {
	identity Identity
	cart     CartStore
	orders   OrdersAPI
	payments PaymentsAPI
	widget   Widget
	nav      Navigator
	prompter Prompter

	// hostedBase is the gateway's hosted checkout page (redirect mode).
	hostedBase string
	// envHost is the host the client runs against; private-network hosts
	// force the redirect mode.
	envHost string

	inFlight atomic.Bool
}

func NewOrchestrator(
	identity Identity,
	cartStore CartStore,
	orders OrdersAPI,
	payments PaymentsAPI,
	widget Widget,
	nav Navigator,
	prompter Prompter,
	hostedBase string,
	envHost string,
) *Orchestrator {
	return &Orchestrator{
		identity:   identity,
		cart:       cartStore,
		orders:     orders,
		payments:   payments,
		widget:     widget,
		nav:        nav,
		prompter:   prompter,
		hostedBase: hostedBase,
		envHost:    envHost,
	}
}

// Run executes one checkout attempt from IDLE to a terminal state. Order
// creation happens at most once per attempt.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, ErrAttemptInFlight
	}
	defer o.inFlight.Store(false)

	ctx = logger.WithAttemptID(ctx, uuid.NewString())
	log := logger.FromCtx(ctx)
	log.Info("checkout attempt started")

	// 1. VALIDATING_AUTH
	user := o.identity.Current()
	if user == nil {
		log.Info("checkout blocked: not authenticated")
		return &Result{
			State: StateTerminalError,
			Route: RouteLogin,
			Err:   &PreconditionError{Reason: "not authenticated", Remedy: RouteLogin},
		}, nil
	}

	// 2. VALIDATING_PROFILE
	if missing := user.Profile.MissingShippingFields(); len(missing) > 0 {
		log.Info("checkout blocked: incomplete shipping profile",
			zap.Strings("missing", missing))
		return &Result{
			State: StateTerminalError,
			Route: RouteProfile,
			Err:   &PreconditionError{Reason: "incomplete shipping profile", Remedy: RouteProfile},
		}, nil
	}

	if len(o.cart.Items()) == 0 {
		return &Result{
			State: StateTerminalError,
			Route: RouteNone,
			Err:   ErrCartEmpty,
		}, nil
	}

	// 3. COLLECTING_METHOD
	choice, err := o.prompter.SelectMethod(ctx, ShippingSummary{
		Address: user.Profile.Address,
		City:    user.Profile.City,
	})
	if err != nil {
		return &Result{State: StateTerminalError, Route: RouteNone, Err: err}, nil
	}
	if choice == nil {
		// User backed out; no side effects.
		log.Info("checkout cancelled at method selection")
		return &Result{State: StateTerminalCancelled, Route: RouteNone}, nil
	}
	if !choice.Method.Valid() {
		return &Result{
			State: StateTerminalError,
			Route: RouteNone,
			Err:   &PreconditionError{Reason: "no payment method selected", Remedy: RouteNone},
		}, nil
	}

	// 4. CREATING_ORDER
	draft := OrderDraft{
		Address:    user.Profile.Address,
		City:       user.Profile.City,
		Phone:      user.Profile.Phone,
		PostalCode: user.Profile.PostalCode,
		Method:     choice.Method,
		Note:       choice.Note,
	}
	created, err := o.orders.CreateOrder(ctx, draft)
	if err != nil {
		if errorCode(err) == CodeProfileIncomplete {
			log.Info("order creation rejected: profile incomplete server-side")
			return &Result{State: StateTerminalError, Route: RouteProfile, Err: err}, nil
		}
		// Cart stays intact; the attempt returns to idle and may be retried.
		log.Error("order creation failed", zap.Error(err))
		return &Result{State: StateTerminalError, Route: RouteNone, Err: err}, nil
	}

	log = log.With(zap.Int64("order_id", created.ID))
	log.Info("order created", zap.String("status", created.Status))

	// 5. Manual methods settle out-of-band; the handoff itself is success.
	if !choice.Method.Hosted() {
		o.cart.ClearLocal()
		log.Info("manual payment method selected, checkout complete",
			zap.String("method", string(choice.Method)))
		return &Result{State: StateTerminalSuccess, Route: RouteOrders, OrderID: created.ID}, nil
	}

	// 6. PAYMENT_PENDING
	params, err := o.payments.InitWompiTransaction(ctx, created.ID)
	if err != nil {
		log.Error("payment initialization failed", zap.Error(err))
		return &Result{State: StateTerminalError, Route: RouteOrders, OrderID: created.ID, Err: err}, nil
	}

	res := o.resolvePayment(ctx, created.ID, params)
	return res, nil
}

// RetryPayment re-initializes the gateway transaction for an existing
// pending order and resolves it through the same integration paths. No new
// order is created.
func (o *Orchestrator) RetryPayment(ctx context.Context, orderID int64) (*Result, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, ErrAttemptInFlight
	}
	defer o.inFlight.Store(false)

	ctx = logger.WithAttemptID(ctx, uuid.NewString())
	log := logger.FromCtx(ctx).With(zap.Int64("order_id", orderID))
	log.Info("payment retry started")

	if o.identity.Current() == nil {
		return &Result{
			State: StateTerminalError,
			Route: RouteLogin,
			Err:   &PreconditionError{Reason: "not authenticated", Remedy: RouteLogin},
		}, nil
	}

	params, err := o.payments.InitWompiTransaction(ctx, orderID)
	if err != nil {
		log.Error("payment initialization failed", zap.Error(err))
		return &Result{State: StateTerminalError, Route: RouteOrders, OrderID: orderID, Err: err}, nil
	}

	return o.resolvePayment(ctx, orderID, params), nil
}

// resolvePayment validates the gateway params, then drives either the
// embedded widget or the hosted redirect.
func (o *Orchestrator) resolvePayment(ctx context.Context, orderID int64, params *GatewayParams) *Result {
	log := logger.FromCtx(ctx).With(zap.Int64("order_id", orderID))

	// Params must be usable before either integration path is touched.
	if missing := params.MissingFields(); len(missing) > 0 {
		log.Error("gateway params incomplete", zap.Strings("missing", missing))
		return &Result{
			State:   StateTerminalError,
			Route:   RouteOrders,
			OrderID: orderID,
			Err:     &ConfigurationError{Missing: missing},
		}
	}

	mode, err := o.selectMode(ctx)
	if err != nil {
		return &Result{State: StateTerminalError, Route: RouteOrders, OrderID: orderID, Err: err}
	}
	if mode == ModeNone {
		// Abandoned at mode selection. The order stays pending; payment can
		// be retried from the pending-payments screen.
		log.Info("payment postponed at mode selection")
		return &Result{State: StateTerminalError, Route: RouteOrders, OrderID: orderID, Err: ErrPaymentAbandoned}
	}

	if mode == ModeRedirect {
		return o.resolveRedirect(ctx, orderID, params)
	}
	return o.resolveWidget(ctx, orderID, params)
}

func (o *Orchestrator) selectMode(ctx context.Context) (Mode, error) {
	if PrivateHost(o.envHost) {
		// The widget script cannot resolve against local or private hosts.
		return ModeRedirect, nil
	}
	return o.prompter.SelectMode(ctx)
}

func (o *Orchestrator) resolveWidget(ctx context.Context, orderID int64, params *GatewayParams) *Result {
	log := logger.FromCtx(ctx).With(zap.Int64("order_id", orderID))

	for {
		tx, err := o.widget.Open(ctx, params)
		if err != nil {
			log.Error("gateway widget failed", zap.Error(err))
			return &Result{State: StateTerminalError, Route: RouteOrders, OrderID: orderID, Err: err}
		}

		switch tx.Status {
		case TxApproved:
			o.cart.ClearLocal()
			log.Info("payment approved", zap.String("transaction_id", tx.ID))
			return &Result{State: StateTerminalSuccess, Route: RouteOrders, OrderID: orderID}

		case TxDeclined:
			log.Warn("payment declined", zap.String("transaction_id", tx.ID))
			retry, err := o.prompter.RetryDeclined(ctx)
			if err != nil || !retry {
				// Cart stays intact; the user may navigate away.
				return &Result{
					State:   StateTerminalError,
					Route:   RouteNone,
					OrderID: orderID,
					Err:     &GatewayDeclinedError{TransactionID: tx.ID},
				}
			}
			// Remain resolving: reopen the widget.

		default:
			// Indeterminate terminal status: treated as a successful handoff.
			// Settlement is confirmed asynchronously out-of-band.
			log.Warn("indeterminate gateway status, treating as handoff",
				zap.String("transaction_id", tx.ID),
				zap.String("status", tx.Status))
			o.cart.ClearLocal()
			return &Result{State: StateTerminalSuccess, Route: RouteOrders, OrderID: orderID}
		}
	}
}

func (o *Orchestrator) resolveRedirect(ctx context.Context, orderID int64, params *GatewayParams) *Result {
	log := logger.FromCtx(ctx).With(zap.Int64("order_id", orderID))

	target, err := HostedCheckoutURL(o.hostedBase, params)
	if err != nil {
		log.Error("failed to build hosted checkout URL", zap.Error(err))
		return &Result{State: StateTerminalError, Route: RouteOrders, OrderID: orderID, Err: err}
	}

	// Control leaves the application: clear the cart before navigating.
	o.cart.ClearLocal()

	if err := o.nav.OpenExternal(ctx, target); err != nil {
		log.Error("failed to open hosted checkout", zap.Error(err))
		return &Result{State: StateTerminalError, Route: RouteOrders, OrderID: orderID, Err: err}
	}

	log.Info("handed off to hosted checkout")
	return &Result{State: StateTerminalSuccess, Route: RouteOrders, OrderID: orderID}
}

// errorCode extracts a backend business-rule code without binding this
// package to the API client's error type.
func errorCode(err error) string {
	var c interface{ ErrorCode() string }
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}
