package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/stocktally/stocktally/internal/inventory"
	jobmetrics "github.com/stocktally/stocktally/internal/jobs"
)

// Email is a composed notification.
type Email struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Notifier delivers composed emails.
type Notifier interface {
	Notify(ctx context.Context, email Email) error
}

// AlertRecorder deduplicates alerts.
type AlertRecorder interface {
	Record(ctx context.Context, rec AlertRecord) error
	Release(ctx context.Context, rec AlertRecord) error
}

// LogNotifier writes emails to the log instead of sending them.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs the email.
func (n LogNotifier) Notify(ctx context.Context, email Email) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "email notification prepared",
		slog.String("from", email.From),
		slog.Any("to", email.To),
		slog.String("subject", email.Subject),
		slog.String("body", email.Body),
	)
	return nil
}

// ComposeLowStockAlert renders the subject and body of a low stock email.
func ComposeLowStockAlert(p LowStockAlertPayload) (string, string) {
	printer := message.NewPrinter(language.English)
	subject := "Low Stock Alert: " + p.ProductName
	var b strings.Builder
	b.WriteString("Low Stock Warning!\n\n")
	printer.Fprintf(&b, "Product: %s\n", p.ProductName)
	printer.Fprintf(&b, "Current Stock: %d\n", p.CurrentStock)
	printer.Fprintf(&b, "Reorder Level: %d\n", p.ReorderLevel)
	printer.Fprintf(&b, "Severity: %s\n\n", strings.ToUpper(p.Severity))
	b.WriteString("Please reorder this product immediately to avoid stockouts.\n\n")
	b.WriteString("Login to your inventory system to view details.\n")
	return subject, b.String()
}

// LowStockAlertJob dispatches low stock notifications once per product and day.
type LowStockAlertJob struct {
	Ledger   AlertRecorder
	Notifier Notifier
	From     string
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewLowStockAlertJob wires dependencies for the alert handler.
func NewLowStockAlertJob(ledger AlertRecorder, notifier Notifier, from string, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockAlertJob {
	return &LowStockAlertJob{
		Ledger:   ledger,
		Notifier: notifier,
		From:     from,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskLowStockAlert tasks.
func (j *LowStockAlertJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Notifier == nil {
		return errors.New("low stock alert: handler not configured")
	}
	var payload LowStockAlertPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.ProductID == "" || payload.ProductName == "" {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskLowStockAlert)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.String("product_id", payload.ProductID),
		slog.String("severity", payload.Severity),
	)
	if len(payload.AdminEmails) == 0 {
		logger.Warn("low stock alert has no recipients")
		return resultErr
	}

	subject, body := ComposeLowStockAlert(payload)
	rec := AlertRecord{
		ProductID: payload.ProductID,
		AlertType: inventory.Severity(payload.Severity).AlertType(),
		Day:       j.now(),
		Message:   subject,
	}
	if j.Ledger != nil {
		if err := j.Ledger.Record(ctx, rec); err != nil {
			if errors.Is(err, ErrAlertAlreadySent) {
				logger.Info("low stock alert already sent today")
				return resultErr
			}
			resultErr = err
			logger.Error("record alert", slog.Any("error", err))
			return resultErr
		}
	}

	err := j.Notifier.Notify(ctx, Email{From: j.From, To: payload.AdminEmails, Subject: subject, Body: body})
	if err != nil {
		resultErr = err
		logger.Error("dispatch alert", slog.Any("error", err))
		if j.Ledger != nil {
			if relErr := j.Ledger.Release(ctx, rec); relErr != nil {
				logger.Warn("release alert record", slog.Any("error", relErr))
			}
		}
		return resultErr
	}
	j.metrics().AddAlert(payload.Severity)
	logger.Info("low stock alert sent", slog.Int("recipients", len(payload.AdminEmails)))
	return resultErr
}

func (j *LowStockAlertJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLowStockAlert))
	}
	return slog.Default().With(slog.String("job", TaskLowStockAlert))
}

func (j *LowStockAlertJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *LowStockAlertJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
