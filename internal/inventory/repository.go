package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/stocktally/stocktally/internal/calculator"
	"github.com/stocktally/stocktally/internal/platform/db"
)

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	GetStockForUpdate(ctx context.Context, productID uuid.UUID) (Product, error)
	UpdateStock(ctx context.Context, productID uuid.UUID, stock int64) error
	InsertMovement(ctx context.Context, m Movement) (Movement, error)
	InsertSale(ctx context.Context, sale Sale) (Sale, error)
	InsertTally(ctx context.Context, tally StockTally) (StockTally, error)
	GetTallyForUpdate(ctx context.Context, id uuid.UUID) (StockTally, error)
	ApproveTally(ctx context.Context, id uuid.UUID, approver *uuid.UUID, at time.Time) error
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type txRepository struct {
	tx pgx.Tx
}

var errRepoNotInitialised = errors.New("inventory repository not initialised")

const productColumns = `id, sku, name, category_id, supplier_id, cost_price, selling_price, current_stock, reorder_level`

// WithTx executes the callback inside a repeatable-read transaction. The
// callback may run more than once when the transaction is retried.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil || r.pool == nil {
		return errRepoNotInitialised
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// ListProducts returns active products ordered by name.
func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	if r == nil || r.pool == nil {
		return nil, errRepoNotInitialised
	}
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+`
FROM products
WHERE is_active
ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct loads a single product.
func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	if r == nil || r.pool == nil {
		return Product{}, errRepoNotInitialised
	}
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

// SalesHistory aggregates sold quantities per day since the given date. Each
// day with sales yields one sample.
func (r *Repository) SalesHistory(ctx context.Context, productID uuid.UUID, since time.Time) ([]calculator.SaleSample, error) {
	if r == nil || r.pool == nil {
		return nil, errRepoNotInitialised
	}
	rows, err := r.pool.Query(ctx, `SELECT s.sale_date, COALESCE(SUM(si.quantity), 0)::bigint
FROM sale_items si
JOIN sales s ON s.id = si.sale_id
WHERE si.product_id=$1 AND s.sale_date >= $2
GROUP BY s.sale_date
ORDER BY s.sale_date ASC`, productID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	samples := []calculator.SaleSample{}
	for rows.Next() {
		var sample calculator.SaleSample
		if err := rows.Scan(&sample.Date, &sample.Quantity); err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

// SalesHistoryAll aggregates daily sales of every product since the given date.
func (r *Repository) SalesHistoryAll(ctx context.Context, since time.Time) (map[uuid.UUID][]calculator.SaleSample, error) {
	if r == nil || r.pool == nil {
		return nil, errRepoNotInitialised
	}
	rows, err := r.pool.Query(ctx, `SELECT si.product_id, s.sale_date, COALESCE(SUM(si.quantity), 0)::bigint
FROM sale_items si
JOIN sales s ON s.id = si.sale_id
WHERE s.sale_date >= $1
GROUP BY si.product_id, s.sale_date
ORDER BY si.product_id, s.sale_date ASC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	history := make(map[uuid.UUID][]calculator.SaleSample)
	for rows.Next() {
		var (
			productID uuid.UUID
			sample    calculator.SaleSample
		)
		if err := rows.Scan(&productID, &sample.Date, &sample.Quantity); err != nil {
			return nil, err
		}
		history[productID] = append(history[productID], sample)
	}
	return history, rows.Err()
}

// GetTally loads a stock tally with its items.
func (r *Repository) GetTally(ctx context.Context, id uuid.UUID) (StockTally, error) {
	if r == nil || r.pool == nil {
		return StockTally{}, errRepoNotInitialised
	}
	return loadTally(ctx, r.pool, id, false)
}

func (r *txRepository) GetStockForUpdate(ctx context.Context, productID uuid.UUID) (Product, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1 FOR UPDATE`, productID)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *txRepository) UpdateStock(ctx context.Context, productID uuid.UUID, stock int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET current_stock=$2, updated_at=NOW() WHERE id=$1`, productID, stock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *txRepository) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO inventory_transactions (product_id, transaction_type, quantity, previous_stock, new_stock, reference_type, reference_id, notes, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW()) RETURNING id, created_at`,
		m.ProductID, string(m.Type), m.Quantity, m.PreviousStock, m.NewStock, string(m.ReferenceType), m.ReferenceID, m.Notes, m.CreatedBy).
		Scan(&m.ID, &m.CreatedAt)
	return m, err
}

func (r *txRepository) InsertSale(ctx context.Context, sale Sale) (Sale, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO sales (sale_number, sale_date, customer_name, subtotal, tax, total, notes, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, created_at`,
		sale.Number, sale.Date, sale.CustomerName, sale.Subtotal, sale.Tax, sale.Total, sale.Notes, sale.CreatedBy).
		Scan(&sale.ID, &sale.CreatedAt)
	if err != nil {
		return Sale{}, err
	}
	for _, item := range sale.Items {
		if _, err := r.tx.Exec(ctx, `INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, total_price)
VALUES ($1,$2,$3,$4,$5)`, sale.ID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice); err != nil {
			return Sale{}, err
		}
	}
	return sale, nil
}

func (r *txRepository) InsertTally(ctx context.Context, tally StockTally) (StockTally, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_tally (tally_number, tally_date, location, status, total_variance, notes, counted_by)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id, created_at`,
		tally.Number, tally.Date, tally.Location, string(tally.Status), tally.TotalVariance, tally.Notes, tally.CountedBy).
		Scan(&tally.ID, &tally.CreatedAt)
	if err != nil {
		return StockTally{}, err
	}
	for _, item := range tally.Items {
		if _, err := r.tx.Exec(ctx, `INSERT INTO stock_tally_items (tally_id, product_id, system_quantity, counted_quantity, variance_reason)
VALUES ($1,$2,$3,$4,$5)`, tally.ID, item.ProductID, item.SystemQuantity, item.CountedQuantity, item.VarianceReason); err != nil {
			return StockTally{}, err
		}
	}
	return tally, nil
}

func (r *txRepository) GetTallyForUpdate(ctx context.Context, id uuid.UUID) (StockTally, error) {
	return loadTally(ctx, r.tx, id, true)
}

func (r *txRepository) ApproveTally(ctx context.Context, id uuid.UUID, approver *uuid.UUID, at time.Time) error {
	tag, err := r.tx.Exec(ctx, `UPDATE stock_tally SET status=$2, approved_by=$3, approved_at=$4 WHERE id=$1`,
		id, string(TallyApproved), approver, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTallyNotFound
	}
	return nil
}

const tallyColumns = `id, tally_number, tally_date, location, status, total_variance, notes, counted_by, approved_by, approved_at, created_at`

func loadTally(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (StockTally, error) {
	query := `SELECT ` + tallyColumns + ` FROM stock_tally WHERE id=$1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var (
		t          StockTally
		status     string
		location   pgtype.Text
		notes      pgtype.Text
		countedBy  pgtype.UUID
		approvedBy pgtype.UUID
		approvedAt pgtype.Timestamptz
	)
	err := q.QueryRow(ctx, query, id).Scan(&t.ID, &t.Number, &t.Date, &location, &status, &t.TotalVariance,
		&notes, &countedBy, &approvedBy, &approvedAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return StockTally{}, ErrTallyNotFound
	}
	if err != nil {
		return StockTally{}, err
	}
	t.Status = TallyStatus(status)
	t.Location = location.String
	t.Notes = notes.String
	t.CountedBy = optionalUUID(countedBy)
	t.ApprovedBy = optionalUUID(approvedBy)
	if approvedAt.Valid {
		at := approvedAt.Time
		t.ApprovedAt = &at
	}

	rows, err := q.Query(ctx, `SELECT product_id, system_quantity, counted_quantity, COALESCE(variance_reason, '')
FROM stock_tally_items
WHERE tally_id=$1
ORDER BY id ASC`, id)
	if err != nil {
		return StockTally{}, err
	}
	defer rows.Close()
	t.Items = []TallyItem{}
	for rows.Next() {
		var item TallyItem
		if err := rows.Scan(&item.ProductID, &item.SystemQuantity, &item.CountedQuantity, &item.VarianceReason); err != nil {
			return StockTally{}, err
		}
		t.Items = append(t.Items, item)
	}
	return t, rows.Err()
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p            Product
		categoryID   pgtype.UUID
		supplierID   pgtype.UUID
		costPrice    pgtype.Numeric
		sellingPrice pgtype.Numeric
	)
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &categoryID, &supplierID, &costPrice, &sellingPrice, &p.CurrentStock, &p.ReorderLevel); err != nil {
		return Product{}, err
	}
	p.CategoryID = optionalUUID(categoryID)
	p.SupplierID = optionalUUID(supplierID)
	p.CostPrice = numericToDecimal(costPrice)
	p.SellingPrice = numericToDecimal(sellingPrice)
	return p, nil
}

func optionalUUID(v pgtype.UUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	id := uuid.UUID(v.Bytes)
	return &id
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil || n.NaN {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
