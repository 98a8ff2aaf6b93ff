// Package service implements the reservation core: acquiring and
// releasing time-boxed holds, sweeping expired ones, and finalizing
// checkouts.  Services own their transactions; repositories only ever
// see an open *sql.Tx.
package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/minigarage/showroom/internal/model"
	"github.com/minigarage/showroom/internal/repository"
)

// ReservationService creates and releases holds that bind one item to
// one browsing session.  Every mutation couples the hold row change
// with a conditional item status update inside a single transaction;
// losing the conditional write means losing the race and the whole
// operation rolls back.
type ReservationService struct {
	db      *sql.DB
	items   *repository.ItemRepo
	holds   *repository.HoldRepo
	holdTTL time.Duration
	now     func() time.Time
}

// ReservationOption customises a ReservationService.
type ReservationOption func(*ReservationService)

// WithClock overrides the time source, useful for tests.
func WithClock(now func() time.Time) ReservationOption {
	return func(s *ReservationService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewReservationService constructs a ReservationService.  holdTTL is
// the fixed wall-clock lifetime of a hold from creation; there is no
// renewal mechanism.
func NewReservationService(db *sql.DB, items *repository.ItemRepo, holds *repository.HoldRepo, holdTTL time.Duration, opts ...ReservationOption) *ReservationService {
	s := &ReservationService{
		db:      db,
		items:   items,
		holds:   holds,
		holdTTL: holdTTL,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// sweepTx reconciles expired holds inside an already-open transaction:
// expired hold rows are deleted and their items flipped back to
// available, but only where still reserved.  It returns the item IDs
// that were released.
func (s *ReservationService) sweepTx(ctx context.Context, tx *sql.Tx) ([]uint64, error) {
	expired, err := s.holds.ExpireHoldsTx(ctx, tx, s.now())
	if err != nil {
		return nil, err
	}
	if len(expired) > 0 {
		if err := s.items.BulkUpdateStatusTx(ctx, tx, expired, model.ItemStatusReserved, model.ItemStatusAvailable); err != nil {
			return nil, err
		}
	}
	return expired, nil
}

// Sweep runs the expiry reconciliation in its own transaction and
// returns the item IDs released back to available.  Sweeping when
// nothing has expired is a no-op, never an error.
func (s *ReservationService) Sweep(ctx context.Context) ([]uint64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	released, err := s.sweepTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return released, nil
}

// Acquire places a hold on an available item for the given session.
// The hold insert and the available→reserved transition are one atomic
// unit: when the conditional status update matches zero rows another
// session won the item between read and write, and the whole
// acquisition rolls back with repository.ErrConflict.  A duplicate
// hold row is reported the same way.  repository.ErrItemNotFound is
// returned for unknown items.
func (s *ReservationService) Acquire(ctx context.Context, itemID uint64, sessionID string) (*model.Hold, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := s.sweepTx(ctx, tx); err != nil {
		return nil, err
	}
	status, err := s.items.GetStatusTx(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if status != model.ItemStatusAvailable {
		return nil, repository.ErrConflict
	}
	now := s.now()
	hold := &model.Hold{
		SessionID: sessionID,
		ItemID:    itemID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.holdTTL),
	}
	if err := s.holds.CreateTx(ctx, tx, hold); err != nil {
		return nil, err
	}
	n, err := s.items.UpdateStatusTx(ctx, tx, itemID, model.ItemStatusAvailable, model.ItemStatusReserved)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Someone else claimed the item between the read and the write.
		return nil, repository.ErrConflict
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return hold, nil
}

// Release drops the session's hold on an item and flips the item back
// to available, conditioned on its status still being reserved so a
// concurrent sale is never undone.  Releasing an item the session does
// not hold (including one whose hold already expired) is a no-op.
func (s *ReservationService) Release(ctx context.Context, itemID uint64, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := s.sweepTx(ctx, tx); err != nil {
		return err
	}
	hold, err := s.holds.GetByItemTx(ctx, tx, itemID)
	if err != nil {
		return err
	}
	if hold != nil && hold.SessionID == sessionID {
		if err := s.holds.DeleteByItemTx(ctx, tx, itemID); err != nil {
			return err
		}
		if _, err := s.items.UpdateStatusTx(ctx, tx, itemID, model.ItemStatusReserved, model.ItemStatusAvailable); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ReleaseAll drops the session's holds on every item in the given set
// and reverts the matching item statuses.  Items the session does not
// hold are skipped.  Used by cart clear.
func (s *ReservationService) ReleaseAll(ctx context.Context, itemIDs []uint64, sessionID string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := s.sweepTx(ctx, tx); err != nil {
		return err
	}
	// Expired holds were already swept above, so every remaining hold
	// of this session counts as active here.
	mine, err := s.holds.ActiveItemIDsBySessionTx(ctx, tx, sessionID, itemIDs, s.now())
	if err != nil {
		return err
	}
	if len(mine) > 0 {
		if err := s.holds.DeleteBySessionAndItemsTx(ctx, tx, sessionID, mine); err != nil {
			return err
		}
		if err := s.items.BulkUpdateStatusTx(ctx, tx, mine, model.ItemStatusReserved, model.ItemStatusAvailable); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
