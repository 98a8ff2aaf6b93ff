package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/minigarage/showroom/internal/model"
)

// HoldRepo provides data access to the holds table.  The UNIQUE
// constraint on item_id is what enforces the at-most-one-active-hold
// invariant; CreateTx surfaces a constraint violation as ErrConflict.
// All timestamps are stored and compared in UTC.
type HoldRepo struct {
	db *sql.DB
}

// NewHoldRepo returns a new HoldRepo bound to the provided database.
func NewHoldRepo(db *sql.DB) *HoldRepo { return &HoldRepo{db: db} }

// CreateTx inserts a new hold within the provided transaction and
// populates its generated ID.  When another session already holds the
// item, the unique constraint on item_id rejects the insert and
// ErrConflict is returned.  The caller must commit or roll back.
func (r *HoldRepo) CreateTx(ctx context.Context, tx *sql.Tx, h *model.Hold) error {
	const q = `INSERT INTO holds (session_id, item_id, created_at, expires_at) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, h.SessionID, h.ItemID, h.CreatedAt.UTC(), h.ExpiresAt.UTC())
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
	h.ID = uint64(id)
	return nil
}

// GetByItemTx returns the hold on an item, if any, within the provided
// transaction.  When no hold exists it returns (nil, nil) so that
// release paths stay idempotent.
func (r *HoldRepo) GetByItemTx(ctx context.Context, tx *sql.Tx, itemID uint64) (*model.Hold, error) {
	const q = `SELECT id, session_id, item_id, created_at, expires_at FROM holds WHERE item_id = ?`
	var h model.Hold
	err := tx.QueryRowContext(ctx, q, itemID).Scan(&h.ID, &h.SessionID, &h.ItemID, &h.CreatedAt, &h.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ExistsByItem reports whether any hold row exists for the item,
// expired or not.  Used by the administrator edit guard.
func (r *HoldRepo) ExistsByItem(ctx context.Context, itemID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM holds WHERE item_id = ?`, itemID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ExpireHoldsTx removes all holds whose expiry is at or before now and
// returns the item IDs whose holds were removed.  The caller must
// revert the corresponding item statuses back to available (only where
// still reserved) within the same transaction, then commit or roll
// back.  When there are no expired holds, it returns an empty slice
// and nil error.
func (r *HoldRepo) ExpireHoldsTx(ctx context.Context, tx *sql.Tx, now time.Time) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT item_id FROM holds WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return nil, err
	}
	var expired []uint64
	for rows.Next() {
		var id uint64
		if scanErr := rows.Scan(&id); scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		expired = append(expired, id)
	}
	if err = rows.Close(); err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return []uint64{}, nil
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM holds WHERE expires_at <= ?`, now.UTC()); err != nil {
		return nil, err
	}
	return expired, nil
}

// DeleteByItemTx removes the hold on a single item within the provided
// transaction.  Deleting a hold that is already gone is a no-op.
func (r *HoldRepo) DeleteByItemTx(ctx context.Context, tx *sql.Tx, itemID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM holds WHERE item_id = ?`, itemID)
	return err
}

// ActiveItemIDsBySessionTx returns, out of the given candidate item
// IDs, those currently held by the specified session with an expiry
// after now.  The result preserves no particular order; callers
// intersect it with their own ordering.  Passing an empty candidate
// slice returns an empty slice.
func (r *HoldRepo) ActiveItemIDsBySessionTx(ctx context.Context, tx *sql.Tx, sessionID string, itemIDs []uint64, now time.Time) ([]uint64, error) {
	if len(itemIDs) == 0 {
		return []uint64{}, nil
	}
	placeholders := make([]string, len(itemIDs))
	args := make([]any, 0, len(itemIDs)+2)
	args = append(args, sessionID)
	for i, id := range itemIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	args = append(args, now.UTC())
	q := `SELECT item_id FROM holds WHERE session_id = ? AND item_id IN (` +
		strings.Join(placeholders, ",") + `) AND expires_at > ?`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	held := make([]uint64, 0, len(itemIDs))
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		held = append(held, id)
	}
	return held, rows.Err()
}

// DeleteBySessionAndItemsTx removes the session's holds on exactly the
// given item set within the provided transaction.  Holds owned by
// other sessions are never touched.  Passing an empty slice has no
// effect and returns nil.
func (r *HoldRepo) DeleteBySessionAndItemsTx(ctx context.Context, tx *sql.Tx, sessionID string, itemIDs []uint64) error {
	if len(itemIDs) == 0 {
		return nil
	}
	placeholders := make([]string, len(itemIDs))
	args := make([]any, 0, len(itemIDs)+1)
	args = append(args, sessionID)
	for i, id := range itemIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	q := `DELETE FROM holds WHERE session_id = ? AND item_id IN (` + strings.Join(placeholders, ",") + `)`
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}
