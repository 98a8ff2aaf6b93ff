package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/minigarage/showroom/internal/config"
	"github.com/minigarage/showroom/internal/model"
	"github.com/minigarage/showroom/internal/repository"
	"github.com/minigarage/showroom/internal/service"
	"github.com/minigarage/showroom/internal/utils"
)

// AdminHandler serves the administrator panel: login, catalog item CRUD
// and order management.  The credential comes from configuration as a
// username plus bcrypt hash; a successful login yields a short-lived
// JWT with the ADMIN role.
type AdminHandler struct {
	Cfg    config.Config
	Items  *repository.ItemRepo
	Holds  *repository.HoldRepo
	Orders *repository.OrderRepo
	Res    *service.ReservationService
}

// NewAdminHandler constructs an AdminHandler with the provided
// dependencies.  All repository and service dependencies must be
// non-nil.
func NewAdminHandler(cfg config.Config, items *repository.ItemRepo, holds *repository.HoldRepo, orders *repository.OrderRepo, res *service.ReservationService) *AdminHandler {
	if items == nil || holds == nil || orders == nil || res == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Cfg: cfg, Items: items, Holds: holds, Orders: orders, Res: res}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /v1/admin/login.  Username comparison is constant
// time and the bcrypt check runs even for an unknown username so both
// failure modes cost the same.
func (h *AdminHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.Cfg.AdminUsername)) == 1
	passOK := utils.VerifyPassword(h.Cfg.AdminPasswordHash, req.Password)
	if !userOK || !passOK {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, h.Cfg.AdminUsername, "ADMIN", h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"expires_at":   tok.Exp.Format(time.RFC3339),
	})
}

// itemRequest is the body for item create and update.  Price arrives as
// a decimal string ("15.50") and is stored as cents.
type itemRequest struct {
	Name         string `json:"name"`
	Code         string `json:"code"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	Status       string `json:"status"`
	Quantity     uint32 `json:"quantity"`
	ImagePath    string `json:"image_path"`
	ExternalLink string `json:"external_link"`
}

func validItemStatus(s string) bool {
	switch s {
	case model.ItemStatusAvailable, model.ItemStatusReserved, model.ItemStatusSold:
		return true
	}
	return false
}

// optional turns an empty form value into a NULL column.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// toItem validates the request and maps it onto a model.Item.  The
// returned error text is safe to echo back to the caller.
func (r itemRequest) toItem() (*model.Item, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, errors.New("name is required")
	}
	cents, err := utils.ParsePrice(strings.TrimSpace(r.Price))
	if err != nil {
		return nil, errors.New("invalid price")
	}
	status := r.Status
	if status == "" {
		status = model.ItemStatusAvailable
	}
	if !validItemStatus(status) {
		return nil, errors.New("invalid status")
	}
	qty := r.Quantity
	if qty == 0 {
		qty = 1
	}
	return &model.Item{
		Name:         name,
		Code:         optional(r.Code),
		Category:     optional(r.Category),
		Description:  optional(r.Description),
		PriceCents:   cents,
		Status:       status,
		Quantity:     qty,
		ImagePath:    optional(r.ImagePath),
		ExternalLink: optional(r.ExternalLink),
	}, nil
}

// ListItems handles GET /v1/admin/items.  Same listing as the public
// catalog but behind authentication, with the sweep applied first so
// the panel never shows stale reservations.
func (h *AdminHandler) ListItems(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := h.Res.Sweep(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reconcile holds"})
	}
	items, err := h.Items.List(ctx, strings.TrimSpace(c.QueryParam("q")), strings.TrimSpace(c.QueryParam("category")))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load items"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateItem handles POST /v1/admin/items.
func (h *AdminHandler) CreateItem(c echo.Context) error {
	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	it, err := req.toItem()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Items.Create(c.Request().Context(), it); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "item code already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create item"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": it})
}

// UpdateItem handles PUT /v1/admin/items/:id.  An edit may change any
// field including status, with one guard: while a hold row exists the
// item cannot be flipped back to available, because that would let a
// second visitor reserve what someone is still checking out.
func (h *AdminHandler) UpdateItem(c echo.Context) error {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || itemID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	it, err := req.toItem()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	it.ID = itemID
	ctx := c.Request().Context()
	if _, err := h.Res.Sweep(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reconcile holds"})
	}
	if it.Status == model.ItemStatusAvailable {
		held, err := h.Holds.ExistsByItem(ctx, itemID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check holds"})
		}
		if held {
			it.Status = model.ItemStatusReserved
		}
	}
	if err := h.Items.Update(ctx, it); err != nil {
		switch {
		case errors.Is(err, repository.ErrItemNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "item code already in use"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update item"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"item": it})
}

// DeleteItem handles DELETE /v1/admin/items/:id.  Deletion is refused
// while the item is reserved; the hold must expire or be released
// first.
func (h *AdminHandler) DeleteItem(c echo.Context) error {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || itemID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Res.Sweep(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reconcile holds"})
	}
	it, err := h.Items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load item"})
	}
	if it.Status == model.ItemStatusReserved {
		return c.JSON(http.StatusConflict, echo.Map{"error": "item is reserved and cannot be deleted"})
	}
	if err := h.Items.Delete(ctx, itemID); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete item"})
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": itemID})
}

// ListOrders handles GET /v1/admin/orders, newest first.
func (h *AdminHandler) ListOrders(c echo.Context) error {
	orders, err := h.Orders.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load orders"})
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// GetOrder handles GET /v1/admin/orders/:code with its line items.
func (h *AdminHandler) GetOrder(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
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
	return c.JSON(http.StatusOK, echo.Map{"order": order, "items": lines})
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus handles PATCH /v1/admin/orders/:code/status.  Any
// known status may be set from any other; the workflow is advisory and
// the administrator is trusted to move orders sensibly.
func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	var req orderStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !model.OrderStatusAllowed(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown order status"})
	}
	if err := h.Orders.UpdateStatusByCode(c.Request().Context(), code, req.Status); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update order"})
	}
	return c.JSON(http.StatusOK, echo.Map{"order_code": code, "status": req.Status})
}

// DeleteOrder handles DELETE /v1/admin/orders/:code.  The order and its
// line items go together in one transaction.  Sold items stay sold;
// relisting them is a separate, explicit edit.
func (h *AdminHandler) DeleteOrder(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	if err := h.Orders.DeleteByCode(c.Request().Context(), code); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete order"})
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": code})
}
