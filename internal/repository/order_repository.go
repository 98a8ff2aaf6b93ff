package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/minigarage/showroom/internal/model"
)

// OrderRepo provides data access to the orders and order_items tables.
// Orders and their items are only ever created together inside the
// checkout transaction; afterwards the pair forms an immutable
// historical record independent of current catalog state.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the provided database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// CreateTx inserts a new order within the provided transaction and
// populates its generated ID.  A duplicate order code is reported as
// ErrConflict so that the caller can regenerate the code and retry.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const q = `INSERT INTO orders (order_code, name, phone, instagram, notes, total_cents, status, created_at)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		o.OrderCode, o.Name, o.Phone, o.Instagram, o.Notes,
		o.TotalCents, o.Status, o.CreatedAt.UTC(),
	)
	if err != nil {
		if IsDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// CreateItemsBulkTx inserts all order_items rows for an order in a
// single statement within the provided transaction.  Passing an empty
// slice has no effect and returns nil.
func (r *OrderRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO order_items (order_id, item_id, price_cents) VALUES `
	args := make([]any, 0, len(items)*3)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, it.OrderID, it.ItemID, it.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// scanOrder reads one orders row from any row scanner.
func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
	var o model.Order
	var notes sql.NullString
	if err := row.Scan(
		&o.ID, &o.OrderCode, &o.Name, &o.Phone, &o.Instagram,
		&notes, &o.TotalCents, &o.Status, &o.CreatedAt,
	); err != nil {
		return nil, err
	}
	if notes.Valid {
		o.Notes = &notes.String
	}
	return &o, nil
}

const orderColumns = `id, order_code, name, phone, instagram, notes, total_cents, status, created_at`

// GetByCode returns a single order by its human-readable code.
// ErrOrderNotFound is returned when the code matches nothing.
func (r *OrderRepo) GetByCode(ctx context.Context, code string) (*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE order_code = ?`
	o, err := scanOrder(r.db.QueryRowContext(ctx, q, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

// ListAll returns every order, newest first, for the administrator
// overview.
func (r *OrderRepo) ListAll(ctx context.Context) ([]model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// OrderLine is one purchased item on a receipt or admin order detail:
// the catalog identity joined with the price captured at sale time.
type OrderLine struct {
	ItemID     uint64  `json:"item_id"`
	Name       string  `json:"name"`
	Code       *string `json:"code,omitempty"`
	Category   *string `json:"category,omitempty"`
	ImagePath  *string `json:"image_path,omitempty"`
	PriceCents int64   `json:"price_cents"`
}

// LinesByOrderID returns the purchased items of an order joined with
// their catalog names, in insertion order.  Prices come from the
// order_items snapshot, not from the live catalog.
func (r *OrderRepo) LinesByOrderID(ctx context.Context, orderID uint64) ([]OrderLine, error) {
	const q = `SELECT i.id, i.name, i.code, i.category, i.image_path, oi.price_cents
			   FROM order_items oi
			   JOIN items i ON i.id = oi.item_id
			   WHERE oi.order_id = ?
			   ORDER BY oi.id ASC`
	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := make([]OrderLine, 0)
	for rows.Next() {
		var l OrderLine
		var code, category, imagePath sql.NullString
		if err := rows.Scan(&l.ItemID, &l.Name, &code, &category, &imagePath, &l.PriceCents); err != nil {
			return nil, err
		}
		if code.Valid {
			l.Code = &code.String
		}
		if category.Valid {
			l.Category = &category.String
		}
		if imagePath.Valid {
			l.ImagePath = &imagePath.String
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// UpdateStatusByCode sets an order's status.  Any value in the allowed
// set is accepted; no transition graph is enforced.  ErrOrderNotFound
// is returned when the code matches nothing.
func (r *OrderRepo) UpdateStatusByCode(ctx context.Context, code, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE order_code = ?`, status, code)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Setting the current status again affects zero rows on MySQL;
		// check existence before reporting not found.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE order_code = ?`, code).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOrderNotFound
			}
			return err
		}
	}
	return nil
}

// DeleteByCode removes an order together with its order_items rows in
// one transaction.  ErrOrderNotFound is returned when the code matches
// nothing; no partial delete is ever left behind.
func (r *OrderRepo) DeleteByCode(ctx context.Context, code string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var orderID uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE order_code = ?`, code).Scan(&orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, orderID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, orderID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
