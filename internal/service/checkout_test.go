package service

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minigarage/showroom/internal/repository"
)

func newMockCheckout(t *testing.T) (*CheckoutService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	items := repository.NewItemRepo(db)
	holds := repository.NewHoldRepo(db)
	orders := repository.NewOrderRepo(db)
	res := NewReservationService(db, items, holds, testHoldTTL,
		WithClock(func() time.Time { return fixedNow }))
	return NewCheckoutService(res, items, holds, orders), mock
}

func itemRows(t *testing.T, prices map[uint64]int64) *sqlmock.Rows {
	t.Helper()
	rows := sqlmock.NewRows([]string{
		"id", "name", "code", "category", "description",
		"price_cents", "status", "quantity", "image_path", "external_link", "created_at",
	})
	for id, cents := range prices {
		rows.AddRow(id, "item", nil, nil, nil, cents, "reserved", 1, nil, nil, fixedNow)
	}
	return rows
}

var testCustomer = Customer{Name: "Dana", Phone: "555-0100", Instagram: "@dana"}

func TestValidate(t *testing.T) {
	const sid = "sess-a"

	t.Run("empty cart needs no database", func(t *testing.T) {
		svc, mock := newMockCheckout(t)
		valid, dropped, err := svc.Validate(context.Background(), sid, nil)
		require.NoError(t, err)
		assert.Empty(t, valid)
		assert.Empty(t, dropped)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("entries without a live hold are dropped", func(t *testing.T) {
		svc, mock := newMockCheckout(t)
		mock.ExpectBegin()
		// Item 2's hold expired, so the sweep releases it first.
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT item_id FROM holds WHERE expires_at <= ?`)).
			WithArgs(fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"item_id"}).AddRow(2))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM holds WHERE expires_at <= ?`)).
			WithArgs(fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE items SET status = ? WHERE id IN (?) AND status = ?`)).
			WithArgs("available", uint64(2), "reserved").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM items WHERE id IN (?,?)`)).
			WithArgs(uint64(1), uint64(2)).
			WillReturnRows(itemRows(t, map[uint64]int64{1: 1000, 2: 1550}))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT item_id FROM holds WHERE session_id = ? AND item_id IN (?,?) AND expires_at > ?`)).
			WithArgs(sid, uint64(1), uint64(2), fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"item_id"}).AddRow(1))
		mock.ExpectCommit()

		valid, dropped, err := svc.Validate(context.Background(), sid, []uint64{1, 2})
		require.NoError(t, err)
		require.Len(t, valid, 1)
		assert.Equal(t, uint64(1), valid[0].ID)
		assert.Equal(t, []uint64{2}, dropped)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFinalize(t *testing.T) {
	const sid = "sess-a"

	t.Run("missing contact details fail before touching the database", func(t *testing.T) {
		svc, mock := newMockCheckout(t)
		_, _, err := svc.Finalize(context.Background(), sid, []uint64{1}, Customer{Name: "Dana"})
		assert.ErrorIs(t, err, ErrMissingCustomerFields)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("held items become one order with captured prices", func(t *testing.T) {
		svc, mock := newMockCheckout(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT item_id FROM holds WHERE expires_at <= ?`)).
			WithArgs(fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"item_id"}))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM items WHERE id IN (?,?)`)).
			WithArgs(uint64(1), uint64(2)).
			WillReturnRows(itemRows(t, map[uint64]int64{1: 1000, 2: 1550}))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT item_id FROM holds WHERE session_id = ? AND item_id IN (?,?) AND expires_at > ?`)).
			WithArgs(sid, uint64(1), uint64(2), fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"item_id"}).AddRow(1).AddRow(2))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
			WithArgs(sqlmock.AnyArg(), "Dana", "555-0100", "@dana", nil, int64(2550), "reserved", fixedNow).
			WillReturnResult(sqlmock.NewResult(42, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items (order_id, item_id, price_cents) VALUES (?, ?, ?),(?, ?, ?)`)).
			WithArgs(uint64(42), uint64(1), int64(1000), uint64(42), uint64(2), int64(1550)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE items SET status = ? WHERE id = ? AND status = ?`)).
			WithArgs("sold", uint64(1), "reserved").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE items SET status = ? WHERE id = ? AND status = ?`)).
			WithArgs("sold", uint64(2), "reserved").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM holds WHERE session_id = ? AND item_id IN (?,?)`)).
			WithArgs(sid, uint64(1), uint64(2)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		order, dropped, err := svc.Finalize(context.Background(), sid, []uint64{1, 2}, testCustomer)
		require.NoError(t, err)
		assert.Empty(t, dropped)
		assert.Equal(t, uint64(42), order.ID)
		assert.Equal(t, int64(2550), order.TotalCents)
		assert.True(t, strings.HasPrefix(order.OrderCode, "HW-"), "order code %q", order.OrderCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing held means conflict, not an empty order", func(t *testing.T) {
		svc, mock := newMockCheckout(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT item_id FROM holds WHERE expires_at <= ?`)).
			WithArgs(fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"item_id"}))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM items WHERE id IN (?,?)`)).
			WithArgs(uint64(1), uint64(2)).
			WillReturnRows(itemRows(t, map[uint64]int64{1: 1000, 2: 1550}))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT item_id FROM holds WHERE session_id = ? AND item_id IN (?,?) AND expires_at > ?`)).
			WithArgs(sid, uint64(1), uint64(2), fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"item_id"}))
		mock.ExpectRollback()

		_, dropped, err := svc.Finalize(context.Background(), sid, []uint64{1, 2}, testCustomer)
		assert.ErrorIs(t, err, ErrNoHeldItems)
		assert.Equal(t, []uint64{1, 2}, dropped)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("an item slipping out of reserved aborts the whole order", func(t *testing.T) {
		svc, mock := newMockCheckout(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT item_id FROM holds WHERE expires_at <= ?`)).
			WithArgs(fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"item_id"}))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM items WHERE id IN (?)`)).
			WithArgs(uint64(1)).
			WillReturnRows(itemRows(t, map[uint64]int64{1: 1000}))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT item_id FROM holds WHERE session_id = ? AND item_id IN (?) AND expires_at > ?`)).
			WithArgs(sid, uint64(1), fixedNow).
			WillReturnRows(sqlmock.NewRows([]string{"item_id"}).AddRow(1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO orders`)).
			WithArgs(sqlmock.AnyArg(), "Dana", "555-0100", "@dana", nil, int64(1000), "reserved", fixedNow).
			WillReturnResult(sqlmock.NewResult(42, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_items`)).
			WithArgs(uint64(42), uint64(1), int64(1000)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE items SET status = ? WHERE id = ? AND status = ?`)).
			WithArgs("sold", uint64(1), "reserved").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, _, err := svc.Finalize(context.Background(), sid, []uint64{1}, testCustomer)
		assert.ErrorIs(t, err, repository.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
