package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/stocktally/stocktally/internal/jobs"
)

const defaultLedgerRetentionDays = 90

// LedgerPruner deletes alert ledger rows older than a cutoff.
type LedgerPruner interface {
	Cleanup(ctx context.Context, cutoff time.Time) (int64, error)
}

// LedgerCleanupJob keeps the alert ledger bounded. Only the dedupe key of the
// current day matters, so old rows carry history and nothing else.
type LedgerCleanupJob struct {
	Ledger  LedgerPruner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewLedgerCleanupJob wires dependencies for the cleanup handler.
func NewLedgerCleanupJob(ledger LedgerPruner, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerCleanupJob {
	return &LedgerCleanupJob{
		Ledger:  ledger,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle deletes ledger rows older than the payload retention.
func (j *LedgerCleanupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Ledger == nil {
		return errors.New("ledger cleanup: handler not configured")
	}
	payload := LedgerCleanupPayload{RetentionDays: defaultLedgerRetentionDays}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = defaultLedgerRetentionDays
	}

	tracker := j.metrics().Track(TaskLedgerCleanup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	cutoff := j.now().AddDate(0, 0, -payload.RetentionDays)
	removed, err := j.Ledger.Cleanup(ctx, cutoff)
	if err != nil {
		j.logger().Error("ledger cleanup failed", slog.Any("error", err))
		return err
	}
	j.logger().Info("ledger cleanup completed",
		slog.Int64("removed", removed),
		slog.Time("cutoff", cutoff))
	return nil
}

func (j *LedgerCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLedgerCleanup))
	}
	return slog.Default().With(slog.String("job", TaskLedgerCleanup))
}

func (j *LedgerCleanupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *LedgerCleanupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
