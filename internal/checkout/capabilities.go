package checkout

import "context"

// Gateway transaction terminal statuses as reported by the widget callback.
const (
	TxApproved = "APPROVED"
	TxDeclined = "DECLINED"
)

// TransactionResult is the widget's terminal callback payload.
type TransactionResult struct {
	ID     string
	Status string
}

// Widget is the embedded gateway checkout capability. Injected so the
// orchestrator never reaches for an ambient global, and tests can fake it.
type Widget interface {
	Open(ctx context.Context, params *GatewayParams) (*TransactionResult, error)
}

// Navigator hands control to an external URL (redirect mode). Once invoked,
// control leaves the application.
type Navigator interface {
	OpenExternal(ctx context.Context, url string) error
}

// Mode selects the gateway integration path.
type Mode string

const (
	ModeNone     Mode = ""
	ModeWidget   Mode = "widget"
	ModeRedirect Mode = "redirect"
)

// MethodChoice is the user's payment selection at COLLECTING_METHOD.
type MethodChoice struct {
	Method PaymentMethod
	Note   string
}

// ShippingSummary is shown while collecting the payment method.
type ShippingSummary struct {
	Address string
	City    string
}

// Prompter covers the user interactions the flow needs. A nil MethodChoice
// means the user cancelled; cancellation at that step has no side effects.
type Prompter interface {
	SelectMethod(ctx context.Context, s ShippingSummary) (*MethodChoice, error)
	SelectMode(ctx context.Context) (Mode, error)
	RetryDeclined(ctx context.Context) (bool, error)
}
