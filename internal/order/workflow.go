package order

import (
	"context"

	"venezia-storefront/internal/logger"

	"go.uber.org/zap"
)

// API is the subset of the backend surface the workflow needs.
type API interface {
	UpdateOrderStatus(ctx context.Context, orderID int64, status Status) error
	CancelOrder(ctx context.Context, orderID int64) error
}

// Confirmer asks the operator to confirm a transition before it is applied.
type Confirmer interface {
	ConfirmTransition(ctx context.Context, o *Order, to Status) (bool, error)
}

// Notifier reports an applied transition to the customer. Delivery
// mechanics (email, push) live behind this contract.
type Notifier interface {
	StatusChanged(ctx context.Context, o *Order, from, to Status)
}

// Workflow applies operator-driven status transitions. Local state is only
// advanced after the API confirms the change.
type Workflow struct {
	api     API
	confirm Confirmer
	notify  Notifier
}

func NewWorkflow(api API, confirm Confirmer, notify Notifier) *Workflow {
	return &Workflow{api: api, confirm: confirm, notify: notify}
}

// Advance moves the order to the single next fulfilment status.
func (w *Workflow) Advance(ctx context.Context, o *Order) error {
	next, ok := o.Status.Next()
	if !ok {
		return ErrInvalidTransition
	}
	return w.apply(ctx, o, next)
}

// Cancel cancels a pending order. The state check happens locally, before
// any network call.
func (w *Workflow) Cancel(ctx context.Context, o *Order) error {
	if !o.Status.CanCancel() {
		return ErrNotCancellable
	}

	ok, err := w.confirm.ConfirmTransition(ctx, o, StatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := w.api.CancelOrder(ctx, o.ID); err != nil {
		logger.FromCtx(ctx).Error("failed to cancel order",
			zap.Int64("order_id", o.ID),
			zap.Error(err),
		)
		return err
	}

	from := o.Status
	o.Status = StatusCancelled
	w.notify.StatusChanged(ctx, o, from, StatusCancelled)
	return nil
}

// Refund marks a paid order as refunded. Administrative action.
func (w *Workflow) Refund(ctx context.Context, o *Order) error {
	if !o.Status.PostPayment() {
		return ErrNotRefundable
	}
	return w.apply(ctx, o, StatusRefunded)
}

func (w *Workflow) apply(ctx context.Context, o *Order, to Status) error {
	if !CanTransition(o.Status, to) {
		return ErrInvalidTransition
	}

	ok, err := w.confirm.ConfirmTransition(ctx, o, to)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := w.api.UpdateOrderStatus(ctx, o.ID, to); err != nil {
		logger.FromCtx(ctx).Error("failed to update order status",
			zap.Int64("order_id", o.ID),
			zap.String("from", o.Status.String()),
			zap.String("to", to.String()),
			zap.Error(err),
		)
		return err
	}

	from := o.Status
	o.Status = to
	logger.FromCtx(ctx).Info("order status updated",
		zap.Int64("order_id", o.ID),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
	w.notify.StatusChanged(ctx, o, from, to)
	return nil
}
