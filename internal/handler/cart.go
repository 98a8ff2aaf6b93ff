package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/minigarage/showroom/internal/repository"
	"github.com/minigarage/showroom/internal/service"
	"github.com/minigarage/showroom/internal/session"
)

// CartHandler manages the per-session cart.  Adding an item acquires a
// hold on it; removing or clearing releases the session's holds.  The
// cart itself is only a list of item IDs in Redis; membership never
// guarantees a live hold, which is why checkout re-validates.
type CartHandler struct {
	Items *repository.ItemRepo
	Res   *service.ReservationService
	Cart  *session.CartStore
}

// NewCartHandler constructs a CartHandler with the provided
// dependencies.  All dependencies must be non-nil.
func NewCartHandler(items *repository.ItemRepo, res *service.ReservationService, cart *session.CartStore) *CartHandler {
	if items == nil || res == nil || cart == nil {
		panic("nil dependency passed to NewCartHandler")
	}
	return &CartHandler{Items: items, Res: res, Cart: cart}
}

// ViewCart handles GET /v1/cart.  It returns the cart's items in
// insertion order together with the running total.  Expired holds are
// swept first, but their items stay listed; checkout is where stale
// entries get dropped with a message to the visitor.
func (h *CartHandler) ViewCart(c echo.Context) error {
	sid, err := getSessionID(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
	}
	ctx := c.Request().Context()
	if _, err := h.Res.Sweep(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reconcile holds"})
	}
	ids, err := h.Cart.Get(ctx, sid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load cart"})
	}
	items, err := h.Items.GetByIDs(ctx, ids)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load cart items"})
	}
	var total int64
	for _, it := range items {
		total += it.PriceCents
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":       items,
		"total_cents": total,
		"count":       len(ids),
	})
}

// AddToCart handles POST /v1/cart/items/:id.  It acquires a hold on
// the item for this session and, on success, appends the item to the
// cart.  A 409 response means another visitor got there first.
func (h *CartHandler) AddToCart(c echo.Context) error {
	sid, err := getSessionID(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
	}
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || itemID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	ctx := c.Request().Context()
	hold, err := h.Res.Acquire(ctx, itemID, sid)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "item is no longer available"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reserve item"})
	}
	ids, err := h.Cart.Add(ctx, sid, itemID)
	if err != nil {
		// The hold exists but the cart write failed; release so the
		// item is not stranded until expiry.
		_ = h.Res.Release(ctx, itemID, sid)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update cart"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"cart":       ids,
		"expires_at": hold.ExpiresAt.Format(time.RFC3339),
	})
}

// RemoveFromCart handles DELETE /v1/cart/items/:id.  The item leaves
// the cart and, when this session owns its hold, the hold is released.
// Removing an absent item is a no-op.
func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	sid, err := getSessionID(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
	}
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || itemID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	ctx := c.Request().Context()
	ids, err := h.Cart.Remove(ctx, sid, itemID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update cart"})
	}
	if err := h.Res.Release(ctx, itemID, sid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release hold"})
	}
	return c.JSON(http.StatusOK, echo.Map{"cart": ids})
}

// ClearCart handles DELETE /v1/cart.  Every hold this session owns
// among the cart's members is released and the cart emptied.  Clearing
// an already-empty cart succeeds with the same result.
func (h *CartHandler) ClearCart(c echo.Context) error {
	sid, err := getSessionID(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
	}
	ctx := c.Request().Context()
	ids, err := h.Cart.Get(ctx, sid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load cart"})
	}
	if err := h.Res.ReleaseAll(ctx, ids, sid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release holds"})
	}
	if err := h.Cart.Clear(ctx, sid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to clear cart"})
	}
	return c.JSON(http.StatusOK, echo.Map{"cart": []uint64{}})
}
