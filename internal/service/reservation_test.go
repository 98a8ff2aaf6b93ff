package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minigarage/showroom/internal/repository"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const testHoldTTL = 120 * time.Minute

func newMockReservation(t *testing.T) (*ReservationService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	svc := NewReservationService(
		db,
		repository.NewItemRepo(db),
		repository.NewHoldRepo(db),
		testHoldTTL,
		WithClock(func() time.Time { return fixedNow }),
	)
	return svc, mock
}

func expectEmptySweep(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT item_id FROM holds WHERE expires_at <= ?`)).
		WithArgs(fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"item_id"}))
}

func TestAcquire(t *testing.T) {
	const (
		itemID    = uint64(7)
		sessionID = "sess-a"
	)

	t.Run("success reserves the item and records expiry", func(t *testing.T) {
		svc, mock := newMockReservation(t)
		mock.ExpectBegin()
		expectEmptySweep(mock)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM items WHERE id = ?`)).
			WithArgs(itemID).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("available"))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO holds (session_id, item_id, created_at, expires_at) VALUES (?, ?, ?, ?)`)).
			WithArgs(sessionID, itemID, fixedNow, fixedNow.Add(testHoldTTL)).
			WillReturnResult(sqlmock.NewResult(3, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE items SET status = ? WHERE id = ? AND status = ?`)).
			WithArgs("reserved", itemID, "available").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		hold, err := svc.Acquire(context.Background(), itemID, sessionID)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), hold.ID)
		assert.Equal(t, sessionID, hold.SessionID)
		assert.Equal(t, fixedNow.Add(testHoldTTL), hold.ExpiresAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown item is not found, not a conflict", func(t *testing.T) {
		svc, mock := newMockReservation(t)
		mock.ExpectBegin()
		expectEmptySweep(mock)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM items WHERE id = ?`)).
			WithArgs(itemID).
			WillReturnRows(sqlmock.NewRows([]string{"status"}))
		mock.ExpectRollback()

		_, err := svc.Acquire(context.Background(), itemID, sessionID)
		assert.ErrorIs(t, err, repository.ErrItemNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already reserved item conflicts", func(t *testing.T) {
		svc, mock := newMockReservation(t)
		mock.ExpectBegin()
		expectEmptySweep(mock)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM items WHERE id = ?`)).
			WithArgs(itemID).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("reserved"))
		mock.ExpectRollback()

		_, err := svc.Acquire(context.Background(), itemID, sessionID)
		assert.ErrorIs(t, err, repository.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("losing the conditional write rolls everything back", func(t *testing.T) {
		svc, mock := newMockReservation(t)
		mock.ExpectBegin()
		expectEmptySweep(mock)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM items WHERE id = ?`)).
			WithArgs(itemID).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("available"))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO holds`)).
			WithArgs(sessionID, itemID, fixedNow, fixedNow.Add(testHoldTTL)).
			WillReturnResult(sqlmock.NewResult(3, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE items SET status = ? WHERE id = ? AND status = ?`)).
			WithArgs("reserved", itemID, "available").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := svc.Acquire(context.Background(), itemID, sessionID)
		assert.ErrorIs(t, err, repository.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRelease(t *testing.T) {
	const itemID = uint64(7)

	t.Run("another session's hold is left alone", func(t *testing.T) {
		svc, mock := newMockReservation(t)
		mock.ExpectBegin()
		expectEmptySweep(mock)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, session_id, item_id, created_at, expires_at FROM holds WHERE item_id = ?`)).
			WithArgs(itemID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "item_id", "created_at", "expires_at"}).
				AddRow(5, "someone-else", itemID, fixedNow, fixedNow.Add(testHoldTTL)))
		mock.ExpectCommit()

		err := svc.Release(context.Background(), itemID, "sess-a")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no hold at all is a no-op", func(t *testing.T) {
		svc, mock := newMockReservation(t)
		mock.ExpectBegin()
		expectEmptySweep(mock)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, session_id, item_id, created_at, expires_at FROM holds WHERE item_id = ?`)).
			WithArgs(itemID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "item_id", "created_at", "expires_at"}))
		mock.ExpectCommit()

		err := svc.Release(context.Background(), itemID, "sess-a")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("own hold is deleted and the item reverted", func(t *testing.T) {
		svc, mock := newMockReservation(t)
		mock.ExpectBegin()
		expectEmptySweep(mock)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, session_id, item_id, created_at, expires_at FROM holds WHERE item_id = ?`)).
			WithArgs(itemID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "item_id", "created_at", "expires_at"}).
				AddRow(5, "sess-a", itemID, fixedNow, fixedNow.Add(testHoldTTL)))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM holds WHERE item_id = ?`)).
			WithArgs(itemID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE items SET status = ? WHERE id = ? AND status = ?`)).
			WithArgs("available", itemID, "reserved").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := svc.Release(context.Background(), itemID, "sess-a")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSweep(t *testing.T) {
	t.Run("expired holds release their items", func(t *testing.T) {
		svc, mock := newMockReservation(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT item_id FROM holds WHERE expires_at <= ?`)).
			WithArgs(fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"item_id"}).AddRow(1).AddRow(2))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM holds WHERE expires_at <= ?`)).
			WithArgs(fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE items SET status = ? WHERE id IN (?,?) AND status = ?`)).
			WithArgs("available", uint64(1), uint64(2), "reserved").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		released, err := svc.Sweep(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []uint64{1, 2}, released)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing expired means no writes", func(t *testing.T) {
		svc, mock := newMockReservation(t)
		mock.ExpectBegin()
		expectEmptySweep(mock)
		mock.ExpectCommit()

		released, err := svc.Sweep(context.Background())
		require.NoError(t, err)
		assert.Empty(t, released)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReleaseAll(t *testing.T) {
	t.Run("only this session's holds go away", func(t *testing.T) {
		svc, mock := newMockReservation(t)
		mock.ExpectBegin()
		expectEmptySweep(mock)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT item_id FROM holds WHERE session_id = ? AND item_id IN (?,?) AND expires_at > ?`)).
			WithArgs("sess-a", uint64(1), uint64(2), fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"item_id"}).AddRow(1))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM holds WHERE session_id = ? AND item_id IN (?)`)).
			WithArgs("sess-a", uint64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE items SET status = ? WHERE id IN (?) AND status = ?`)).
			WithArgs("available", uint64(1), "reserved").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := svc.ReleaseAll(context.Background(), []uint64{1, 2}, "sess-a")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty set does not even open a transaction", func(t *testing.T) {
		svc, mock := newMockReservation(t)
		err := svc.ReleaseAll(context.Background(), nil, "sess-a")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
