package jobs

import (
	"context"
	"log/slog"

	"github.com/stocktally/stocktally/internal/inventory"
)

// AlertHook enqueues a low stock alert when a movement pushes a product to or
// below its reorder level.
type AlertHook struct {
	Alerts     AlertEnqueuer
	Recipients []string
	Logger     *slog.Logger
}

// NewAlertHook constructs the hook.
func NewAlertHook(alerts AlertEnqueuer, recipients []string, logger *slog.Logger) *AlertHook {
	return &AlertHook{Alerts: alerts, Recipients: recipients, Logger: logger}
}

// HandleStockChanged implements inventory.StockHook.
func (h *AlertHook) HandleStockChanged(ctx context.Context, evt inventory.StockChangedEvent) error {
	if h == nil || h.Alerts == nil || len(h.Recipients) == 0 || !evt.NeedsAlert() {
		return nil
	}
	info, err := h.Alerts.EnqueueLowStockAlert(ctx, LowStockAlertPayload{
		ProductID:    evt.ProductID.String(),
		ProductName:  evt.ProductName,
		CurrentStock: evt.NewStock,
		ReorderLevel: evt.ReorderLevel,
		Severity:     string(evt.Severity()),
		AdminEmails:  h.Recipients,
	})
	if err != nil {
		return err
	}
	if h.Logger != nil && info != nil {
		h.Logger.Info("low stock alert enqueued",
			slog.String("product_id", evt.ProductID.String()),
			slog.String("task_id", info.ID))
	}
	return nil
}
