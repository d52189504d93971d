package checkout

// State tracks a single checkout attempt.
type State string

const (
	StateIdle              State = "IDLE"
	StateValidatingAuth    State = "VALIDATING_AUTH"
	StateValidatingProfile State = "VALIDATING_PROFILE"
	StateCollectingMethod  State = "COLLECTING_METHOD"
	StateCreatingOrder     State = "CREATING_ORDER"
	StatePaymentPending    State = "PAYMENT_PENDING"
	StateResolvingPayment  State = "RESOLVING_PAYMENT"
	StateTerminalSuccess   State = "TERMINAL_SUCCESS"
	StateTerminalCancelled State = "TERMINAL_CANCELLED"
	StateTerminalError     State = "TERMINAL_ERROR"
)

func (s State) String() string { return string(s) }

func (s State) Terminal() bool {
	return s == StateTerminalSuccess || s == StateTerminalCancelled || s == StateTerminalError
}

// PaymentMethod values match the backend's wire labels.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "efectivo"
	MethodTransfer PaymentMethod = "transferencia"
	MethodWompi    PaymentMethod = "wompi"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodCash || m == MethodTransfer || m == MethodWompi
}

// Hosted reports whether settlement happens at the external gateway.
func (m PaymentMethod) Hosted() bool {
	return m == MethodWompi
}

// Route tells the caller where to send the user next.
type Route string

const (
	RouteNone    Route = ""
	RouteLogin   Route = "login"
	RouteProfile Route = "profile"
	RouteOrders  Route = "orders"
)
