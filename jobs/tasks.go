package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueAlerts carries low stock notifications.
	QueueAlerts = "alerts"
	// TaskStockScan classifies every product and raises alerts for reorders.
	TaskStockScan = "stock:scan"
	// TaskLowStockAlert notifies administrators about a low stock product.
	TaskLowStockAlert = "alert:low-stock"
	// TaskLedgerCleanup prunes old alert ledger rows.
	TaskLedgerCleanup = "alert:ledger-cleanup"
)

// StockScanPayload carries scheduling metadata for a stock scan.
type StockScanPayload struct {
	Trigger     string    `json:"trigger"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewStockScanTask constructs an Asynq task for the stock scan.
func NewStockScanTask(trigger string, at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(StockScanPayload{Trigger: trigger, RequestedAt: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockScan, body, asynq.Queue(QueueDefault)), nil
}

// LowStockAlertPayload describes a product that needs restocking.
type LowStockAlertPayload struct {
	ProductID    string   `json:"product_id"`
	ProductName  string   `json:"product_name"`
	CurrentStock int64    `json:"current_stock"`
	ReorderLevel int64    `json:"reorder_level"`
	Severity     string   `json:"severity"`
	AdminEmails  []string `json:"admin_emails"`
}

// NewLowStockAlertTask constructs an Asynq task.
func NewLowStockAlertTask(payload LowStockAlertPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockAlert, data, asynq.Queue(QueueAlerts), asynq.MaxRetry(5)), nil
}

// LedgerCleanupPayload carries the retention applied by a cleanup run.
type LedgerCleanupPayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewLedgerCleanupTask constructs the periodic alert ledger cleanup task.
func NewLedgerCleanupTask(retentionDays int) (*asynq.Task, error) {
	body, err := json.Marshal(LedgerCleanupPayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerCleanup, body, asynq.Queue(QueueDefault)), nil
}
