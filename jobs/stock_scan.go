package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stocktally/stocktally/internal/calculator"
	"github.com/stocktally/stocktally/internal/inventory"
	jobmetrics "github.com/stocktally/stocktally/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Classifier runs stock level optimisation over all products.
type Classifier interface {
	Classify(ctx context.Context) ([]inventory.Product, []calculator.Recommendation, error)
}

// AlertEnqueuer schedules low stock alerts.
type AlertEnqueuer interface {
	EnqueueLowStockAlert(ctx context.Context, payload LowStockAlertPayload) (*asynq.TaskInfo, error)
}

// StockScanJob classifies the catalogue and raises alerts for products that
// need reordering.
type StockScanJob struct {
	Classifier Classifier
	Alerts     AlertEnqueuer
	Recipients []string
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	clock      func() time.Time
}

// NewStockScanJob wires dependencies for the scan handler.
func NewStockScanJob(classifier Classifier, alerts AlertEnqueuer, recipients []string, logger *slog.Logger, metrics *jobmetrics.Metrics) *StockScanJob {
	return &StockScanJob{
		Classifier: classifier,
		Alerts:     alerts,
		Recipients: recipients,
		Logger:     logger,
		Metrics:    metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the stock scan.
func (j *StockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Classifier == nil {
		return errors.New("stock scan: handler not configured")
	}
	var payload StockScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Trigger == "" {
		payload.Trigger = "cron"
	}

	start := j.now()
	tracker := j.metrics().Track(TaskStockScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("trigger", payload.Trigger))
	logger.Info("starting stock scan")

	products, recs, err := j.Classifier.Classify(ctx)
	if err != nil {
		resultErr = err
		logger.Error("stock scan failed", slog.Any("error", err))
		return resultErr
	}

	byID := make(map[string]inventory.Product, len(products))
	for _, p := range products {
		byID[p.ID.String()] = p
	}

	counts := map[calculator.Action]int{}
	enqueued := 0
	for _, rec := range recs {
		counts[rec.Action]++
		if rec.Action != calculator.ActionReorder {
			continue
		}
		product, ok := byID[rec.ProductID]
		if !ok {
			continue
		}
		if j.Alerts == nil || len(j.Recipients) == 0 {
			continue
		}
		_, err := j.Alerts.EnqueueLowStockAlert(ctx, LowStockAlertPayload{
			ProductID:    rec.ProductID,
			ProductName:  product.Name,
			CurrentStock: product.CurrentStock,
			ReorderLevel: product.ReorderLevel,
			Severity:     string(inventory.SeverityFor(product)),
			AdminEmails:  j.Recipients,
		})
		if err != nil {
			resultErr = err
			logger.Error("enqueue low stock alert", slog.String("product_id", rec.ProductID), slog.Any("error", err))
			return resultErr
		}
		enqueued++
	}

	logger.Info("completed stock scan",
		slog.Int("products", len(recs)),
		slog.Int("reorder", counts[calculator.ActionReorder]),
		slog.Int("reduce", counts[calculator.ActionReduce]),
		slog.Int("maintain", counts[calculator.ActionMaintain]),
		slog.Int("alerts_enqueued", enqueued),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *StockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskStockScan))
	}
	return slog.Default().With(slog.String("job", TaskStockScan))
}

func (j *StockScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *StockScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
