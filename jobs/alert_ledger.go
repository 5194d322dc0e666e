package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAlertAlreadySent indicates the product was already alerted for the day.
var ErrAlertAlreadySent = errors.New("low stock alert already sent today")

// AlertRecord identifies one alert in the ledger.
type AlertRecord struct {
	ProductID string
	AlertType string
	Day       time.Time
	Message   string
}

// AlertLedger persists dispatched alerts so each product is alerted at most
// once per type and day.
type AlertLedger struct {
	pool *pgxpool.Pool
}

// NewAlertLedger constructs the ledger.
func NewAlertLedger(pool *pgxpool.Pool) *AlertLedger {
	return &AlertLedger{pool: pool}
}

// Record inserts the alert or returns ErrAlertAlreadySent.
func (l *AlertLedger) Record(ctx context.Context, rec AlertRecord) error {
	if l == nil || l.pool == nil {
		return errors.New("alert ledger not initialised")
	}
	if rec.ProductID == "" || rec.AlertType == "" {
		return errors.New("alert ledger: product and alert type required")
	}
	_, err := l.pool.Exec(ctx, `INSERT INTO stock_alerts (product_id, alert_type, alert_date, message, created_at)
VALUES ($1, $2, $3, $4, NOW())`, rec.ProductID, rec.AlertType, rec.Day.Format(time.DateOnly), rec.Message)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlertAlreadySent
		}
		return err
	}
	return nil
}

// Release removes a ledger entry, used when dispatch fails after recording.
func (l *AlertLedger) Release(ctx context.Context, rec AlertRecord) error {
	if l == nil || l.pool == nil {
		return nil
	}
	_, err := l.pool.Exec(ctx, `DELETE FROM stock_alerts WHERE product_id=$1 AND alert_type=$2 AND alert_date=$3`,
		rec.ProductID, rec.AlertType, rec.Day.Format(time.DateOnly))
	return err
}

// Cleanup removes entries created before cutoff and reports how many went.
func (l *AlertLedger) Cleanup(ctx context.Context, cutoff time.Time) (int64, error) {
	if l == nil || l.pool == nil {
		return 0, errors.New("alert ledger not initialised")
	}
	tag, err := l.pool.Exec(ctx, `DELETE FROM stock_alerts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
