package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/minigarage/showroom/internal/model"
)

// ItemRepo provides data access to the items table.  All status
// mutations go through the conditional update methods below so that a
// status change only succeeds when the row is still in the expected
// prior state; callers must check the affected-row count.
type ItemRepo struct {
	db *sql.DB
}

// NewItemRepo returns a new ItemRepo bound to the provided database.
func NewItemRepo(db *sql.DB) *ItemRepo { return &ItemRepo{db: db} }

// DB exposes the underlying handle so that services can open
// transactions spanning multiple repositories.
func (r *ItemRepo) DB() *sql.DB { return r.db }

const itemColumns = `id, name, code, category, description, price_cents, status, quantity, image_path, external_link, created_at`

// scanItem reads one items row from any row scanner into a model.Item,
// converting nullable text columns into pointers.
func scanItem(row interface{ Scan(...any) error }) (*model.Item, error) {
	var it model.Item
	var code, category, description, imagePath, externalLink sql.NullString
	if err := row.Scan(
		&it.ID, &it.Name, &code, &category, &description,
		&it.PriceCents, &it.Status, &it.Quantity, &imagePath, &externalLink,
		&it.CreatedAt,
	); err != nil {
		return nil, err
	}
	if code.Valid {
		it.Code = &code.String
	}
	if category.Valid {
		it.Category = &category.String
	}
	if description.Valid {
		it.Description = &description.String
	}
	if imagePath.Valid {
		it.ImagePath = &imagePath.String
	}
	if externalLink.Valid {
		it.ExternalLink = &externalLink.String
	}
	return &it, nil
}

// GetByID returns a single item by its identifier.  ErrItemNotFound is
// returned when the item does not exist.
func (r *ItemRepo) GetByID(ctx context.Context, id uint64) (*model.Item, error) {
	const q = `SELECT ` + itemColumns + ` FROM items WHERE id = ?`
	it, err := scanItem(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	return it, err
}

// List returns catalog items ordered newest first.  The optional query
// string matches name or code by substring; the optional category
// filters exactly.
func (r *ItemRepo) List(ctx context.Context, query, category string) ([]model.Item, error) {
	q := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	args := make([]any, 0, 3)
	if query != "" {
		q += ` AND (name LIKE ? OR code LIKE ?)`
		pat := "%" + query + "%"
		args = append(args, pat, pat)
	}
	if category != "" {
		q += ` AND category = ?`
		args = append(args, category)
	}
	q += ` ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// ListCategories returns the distinct non-empty categories present in
// the catalog, sorted alphabetically.
func (r *ItemRepo) ListCategories(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT category FROM items
			   WHERE category IS NOT NULL AND category != ''
			   ORDER BY category`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cats := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// GetByIDsTx fetches the items with the given identifiers within the
// provided transaction using a parameterized IN clause.  Missing
// identifiers are silently absent from the result.  Passing an empty
// slice returns an empty slice.
func (r *ItemRepo) GetByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) ([]model.Item, error) {
	if len(ids) == 0 {
		return []model.Item{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	q := `SELECT ` + itemColumns + ` FROM items WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Item, 0, len(ids))
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// GetByIDs fetches items by identifier outside any transaction, used
// by the cart view.  Missing identifiers are silently absent from the
// result.
func (r *ItemRepo) GetByIDs(ctx context.Context, ids []uint64) ([]model.Item, error) {
	if len(ids) == 0 {
		return []model.Item{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	q := `SELECT ` + itemColumns + ` FROM items WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Item, 0, len(ids))
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// GetStatusTx returns an item's current status within the provided
// transaction.  ErrItemNotFound is returned when the item does not
// exist.  The returned value is only a snapshot; status changes must
// still go through the conditional update methods.
func (r *ItemRepo) GetStatusTx(ctx context.Context, tx *sql.Tx, id uint64) (string, error) {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM items WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrItemNotFound
	}
	return status, err
}

// UpdateStatusTx transitions one item's status from a required prior
// state to a new state and returns the number of rows affected.  A zero
// count means the item was not in the expected state at write time and
// the caller lost the race; the caller must treat that as a conflict
// and roll back.  This conditional write is the only concurrency
// control primitive in the system.
func (r *ItemRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to string) (int64, error) {
	const q = `UPDATE items SET status = ? WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, to, id, from)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// BulkUpdateStatusTx applies the same conditional status transition to
// a set of items.  Rows not in the expected prior state are left
// untouched, which makes the sweep and release paths idempotent.
// Passing an empty slice has no effect and returns nil.
func (r *ItemRepo) BulkUpdateStatusTx(ctx context.Context, tx *sql.Tx, ids []uint64, from, to string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, to)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	args = append(args, from)
	q := `UPDATE items SET status = ? WHERE id IN (` + strings.Join(placeholders, ",") + `) AND status = ?`
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// Create inserts a new catalog item and populates its generated ID.
// A duplicate item code results in ErrConflict.
func (r *ItemRepo) Create(ctx context.Context, it *model.Item) error {
	const q = `INSERT INTO items (name, code, category, description, price_cents, status, quantity, image_path, external_link)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		it.Name, it.Code, it.Category, it.Description,
		it.PriceCents, it.Status, it.Quantity, it.ImagePath, it.ExternalLink,
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
	it.ID = uint64(id)
	return nil
}

// Update rewrites the editable fields of an item, including its status.
// Administrator edits are the only path that may set status directly;
// the handler layer guards against reverting a held item to available.
// A duplicate item code results in ErrConflict, an unknown identifier
// in ErrItemNotFound.
func (r *ItemRepo) Update(ctx context.Context, it *model.Item) error {
	const q = `UPDATE items SET name = ?, code = ?, category = ?, description = ?,
			   price_cents = ?, status = ?, quantity = ?, image_path = ?, external_link = ?
			   WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		it.Name, it.Code, it.Category, it.Description,
		it.PriceCents, it.Status, it.Quantity, it.ImagePath, it.ExternalLink,
		it.ID,
	)
	if err != nil {
		if IsDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// The row may exist with identical values; distinguish from a
		// missing row before reporting not found.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM items WHERE id = ?`, it.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrItemNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes an item from the catalog.  ErrItemNotFound is
// returned when the identifier matches nothing.
func (r *ItemRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}
