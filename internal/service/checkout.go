package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/minigarage/showroom/internal/model"
	"github.com/minigarage/showroom/internal/repository"
	"github.com/minigarage/showroom/internal/utils"
)

// ErrMissingCustomerFields is returned by Finalize when the required
// customer fields (name, phone, contact handle) are not all present.
var ErrMissingCustomerFields = errors.New("name, phone and instagram are required")

// ErrNoHeldItems is returned when none of the requested cart items are
// currently held by the session, so checkout cannot proceed.
var ErrNoHeldItems = errors.New("no items held by this session")

// orderCodeAttempts bounds the retry loop on the vanishingly rare
// order code collision before failing loudly.
const orderCodeAttempts = 3

// Customer carries the contact details collected by the checkout form.
type Customer struct {
	Name      string
	Phone     string
	Instagram string
	Notes     string
}

// CheckoutService validates a cart against live holds and atomically
// converts the session's held items into a persisted order.
type CheckoutService struct {
	res    *ReservationService
	items  *repository.ItemRepo
	holds  *repository.HoldRepo
	orders *repository.OrderRepo
}

// NewCheckoutService constructs a CheckoutService.  The reservation
// service supplies the expiry sweep and the time source so both
// services observe the same clock.
func NewCheckoutService(res *ReservationService, items *repository.ItemRepo, holds *repository.HoldRepo, orders *repository.OrderRepo) *CheckoutService {
	return &CheckoutService{res: res, items: items, holds: holds, orders: orders}
}

// Validate sweeps expired holds, then intersects the cart with the set
// of items currently held by this exact session.  It returns the items
// that may be checked out, in cart order, plus the cart IDs that must
// be dropped (expired, sold or unknown).  The caller is responsible
// for removing dropped IDs from the session's cart.
func (s *CheckoutService) Validate(ctx context.Context, sessionID string, cartIDs []uint64) ([]model.Item, []uint64, error) {
	if len(cartIDs) == 0 {
		return []model.Item{}, []uint64{}, nil
	}
	tx, err := s.res.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := s.res.sweepTx(ctx, tx); err != nil {
		return nil, nil, err
	}
	valid, dropped, err := s.validateTx(ctx, tx, sessionID, cartIDs)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true
	return valid, dropped, nil
}

// validateTx computes (valid, dropped) inside an open transaction.
// Cart order is preserved in the valid slice.
func (s *CheckoutService) validateTx(ctx context.Context, tx *sql.Tx, sessionID string, cartIDs []uint64) ([]model.Item, []uint64, error) {
	items, err := s.items.GetByIDsTx(ctx, tx, cartIDs)
	if err != nil {
		return nil, nil, err
	}
	held, err := s.holds.ActiveItemIDsBySessionTx(ctx, tx, sessionID, cartIDs, s.res.now())
	if err != nil {
		return nil, nil, err
	}
	heldSet := make(map[uint64]struct{}, len(held))
	for _, id := range held {
		heldSet[id] = struct{}{}
	}
	byID := make(map[uint64]model.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	valid := make([]model.Item, 0, len(cartIDs))
	dropped := make([]uint64, 0)
	for _, id := range cartIDs {
		it, exists := byID[id]
		if _, ok := heldSet[id]; ok && exists {
			valid = append(valid, it)
		} else {
			dropped = append(dropped, id)
		}
	}
	return valid, dropped, nil
}

// Finalize converts the session's validly held cart items into an
// order.  Within one transaction it inserts the order and one
// order_items row per item (capturing current prices), flips each item
// reserved→sold with a conditional update, and deletes exactly this
// session's holds for the captured set.  Any sub-step failure aborts
// the whole transaction: no order exists without its items and no item
// is marked sold without an order_items row recording it.  It returns
// the created order along with the cart IDs dropped during
// re-validation.
func (s *CheckoutService) Finalize(ctx context.Context, sessionID string, cartIDs []uint64, cust Customer) (*model.Order, []uint64, error) {
	if cust.Name == "" || cust.Phone == "" || cust.Instagram == "" {
		return nil, nil, ErrMissingCustomerFields
	}
	tx, err := s.res.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := s.res.sweepTx(ctx, tx); err != nil {
		return nil, nil, err
	}
	valid, dropped, err := s.validateTx(ctx, tx, sessionID, cartIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(valid) == 0 {
		return nil, dropped, ErrNoHeldItems
	}
	var total int64
	for _, it := range valid {
		total += it.PriceCents
	}
	order := &model.Order{
		Name:       cust.Name,
		Phone:      cust.Phone,
		Instagram:  cust.Instagram,
		TotalCents: total,
		Status:     model.OrderStatusReserved,
		CreatedAt:  s.res.now(),
	}
	if cust.Notes != "" {
		order.Notes = &cust.Notes
	}
	if err := s.createWithFreshCode(ctx, tx, order); err != nil {
		return nil, nil, err
	}
	lines := make([]model.OrderItem, 0, len(valid))
	validIDs := make([]uint64, 0, len(valid))
	for _, it := range valid {
		lines = append(lines, model.OrderItem{
			OrderID:    order.ID,
			ItemID:     it.ID,
			PriceCents: it.PriceCents,
		})
		validIDs = append(validIDs, it.ID)
	}
	if err := s.orders.CreateItemsBulkTx(ctx, tx, lines); err != nil {
		return nil, nil, err
	}
	for _, id := range validIDs {
		n, err := s.items.UpdateStatusTx(ctx, tx, id, model.ItemStatusReserved, model.ItemStatusSold)
		if err != nil {
			return nil, nil, err
		}
		if n == 0 {
			// The item slipped out of reserved despite the live hold;
			// abort rather than sell it twice.
			return nil, nil, repository.ErrConflict
		}
	}
	if err := s.holds.DeleteBySessionAndItemsTx(ctx, tx, sessionID, validIDs); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true
	return order, dropped, nil
}

// createWithFreshCode inserts the order, regenerating the order code
// on a duplicate-key collision.  After orderCodeAttempts collisions it
// gives up and returns the conflict.
func (s *CheckoutService) createWithFreshCode(ctx context.Context, tx *sql.Tx, order *model.Order) error {
	var err error
	for attempt := 0; attempt < orderCodeAttempts; attempt++ {
		order.OrderCode, err = utils.NewOrderCode()
		if err != nil {
			return err
		}
		err = s.orders.CreateTx(ctx, tx, order)
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
	}
	return err
}
