package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/minigarage/showroom/internal/queue"
	"github.com/minigarage/showroom/internal/repository"
	"github.com/minigarage/showroom/internal/service"
	"github.com/minigarage/showroom/internal/session"
)

// CheckoutHandler drives the checkout flow: a preview that re-validates
// the cart against live holds, the submit step that atomically converts
// held items into an order, and the public receipt lookup.
type CheckoutHandler struct {
	Checkout *service.CheckoutService
	Orders   *repository.OrderRepo
	Cart     *session.CartStore
}

// NewCheckoutHandler constructs a CheckoutHandler with the provided
// dependencies.  All dependencies must be non-nil.
func NewCheckoutHandler(checkout *service.CheckoutService, orders *repository.OrderRepo, cart *session.CartStore) *CheckoutHandler {
	if checkout == nil || orders == nil || cart == nil {
		panic("nil dependency passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{Checkout: checkout, Orders: orders, Cart: cart}
}

// checkoutRequest is the body of POST /v1/checkout.
type checkoutRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Instagram string `json:"instagram"`
	Notes     string `json:"notes"`
}

// Preview handles GET /v1/checkout.  It re-validates the cart, prunes
// entries whose holds expired or were sold, and returns what would be
// ordered together with the IDs that had to be dropped.
func (h *CheckoutHandler) Preview(c echo.Context) error {
	sid, err := getSessionID(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
	}
	ctx := c.Request().Context()
	cartIDs, err := h.Cart.Get(ctx, sid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load cart"})
	}
	valid, dropped, err := h.Checkout.Validate(ctx, sid, cartIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to validate cart"})
	}
	if len(dropped) > 0 {
		if _, err := h.Cart.Drop(ctx, sid, dropped); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update cart"})
		}
	}
	var total int64
	for _, it := range valid {
		total += it.PriceCents
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":       valid,
		"total_cents": total,
		"dropped":     dropped,
	})
}

// Submit handles POST /v1/checkout.  On success the order is persisted,
// the session's cart is cleared and an order.placed event is published
// for downstream consumers.  If any cart entry turned stale between
// preview and submit, the order covers the surviving items only and the
// response lists the dropped IDs.
func (h *CheckoutHandler) Submit(c echo.Context) error {
	sid, err := getSessionID(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session unavailable"})
	}
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	cust := service.Customer{
		Name:      strings.TrimSpace(req.Name),
		Phone:     strings.TrimSpace(req.Phone),
		Instagram: strings.TrimSpace(req.Instagram),
		Notes:     strings.TrimSpace(req.Notes),
	}
	ctx := c.Request().Context()
	cartIDs, err := h.Cart.Get(ctx, sid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load cart"})
	}
	order, dropped, err := h.Checkout.Finalize(ctx, sid, cartIDs, cust)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCustomerFields):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrNoHeldItems):
			if len(dropped) > 0 {
				if _, dropErr := h.Cart.Drop(ctx, sid, dropped); dropErr != nil {
					log.Printf("checkout: failed to prune cart for session %s: %v", sid, dropErr)
				}
			}
			return c.JSON(http.StatusConflict, echo.Map{
				"error":   "no items in your cart are still held",
				"dropped": dropped,
			})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "an item changed state during checkout, please retry"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to place order"})
		}
	}
	if err := h.Cart.Clear(ctx, sid); err != nil {
		log.Printf("checkout: failed to clear cart for session %s: %v", sid, err)
	}
	go h.publishPlaced(order.ID, order.OrderCode, sid, cust.Name, order.TotalCents)
	return c.JSON(http.StatusCreated, echo.Map{
		"order_code":  order.OrderCode,
		"total_cents": order.TotalCents,
		"status":      order.Status,
		"dropped":     dropped,
	})
}

// publishPlaced emits the order.placed event after the transaction has
// committed.  Publishing is best effort: a broker outage must never
// undo a placed order, so failures are only logged.
func (h *CheckoutHandler) publishPlaced(orderID uint64, orderCode, sessionID, customer string, totalCents int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	lines, err := h.Orders.LinesByOrderID(ctx, orderID)
	if err != nil {
		log.Printf("checkout: failed to load lines for order %s: %v", orderCode, err)
		return
	}
	ev := queue.OrderPlacedEvent{
		OrderID:    orderID,
		OrderCode:  orderCode,
		SessionID:  sessionID,
		Customer:   customer,
		TotalCents: totalCents,
		PlacedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	for _, ln := range lines {
		ev.ItemIDs = append(ev.ItemIDs, ln.ItemID)
		ev.ItemNames = append(ev.ItemNames, ln.Name)
	}
	if err := service.PublishOrderPlaced(ctx, ev); err != nil {
		log.Printf("checkout: failed to publish order.placed for %s: %v", orderCode, err)
	}
}

// GetReceipt handles GET /v1/orders/:code.  The receipt is looked up by
// order code alone so a visitor can bookmark it after checkout.
func (h *CheckoutHandler) GetReceipt(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order code"})
	}
	ctx := c.Request().Context()
	order, err := h.Orders.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load order"})
	}
	lines, err := h.Orders.LinesByOrderID(ctx, order.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load order items"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order": order,
		"items": lines,
	})
}
