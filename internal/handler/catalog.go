package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/minigarage/showroom/internal/repository"
	"github.com/minigarage/showroom/internal/service"
)

// CatalogHandler serves the public storefront: item listing with
// search and category filters, item detail, and the category index.
// Every entry point runs the expiry sweep first so no stale "reserved"
// badge survives longer than one request.
type CatalogHandler struct {
	Items *repository.ItemRepo
	Res   *service.ReservationService
}

// NewCatalogHandler constructs a CatalogHandler with the provided
// dependencies.  All dependencies must be non-nil.
func NewCatalogHandler(items *repository.ItemRepo, res *service.ReservationService) *CatalogHandler {
	if items == nil || res == nil {
		panic("nil dependency passed to NewCatalogHandler")
	}
	return &CatalogHandler{Items: items, Res: res}
}

// ListItems handles GET /v1/items.  Optional query parameters: q
// matches name or code by substring, category filters exactly.
func (h *CatalogHandler) ListItems(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := h.Res.Sweep(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reconcile holds"})
	}
	q := strings.TrimSpace(c.QueryParam("q"))
	category := strings.TrimSpace(c.QueryParam("category"))
	items, err := h.Items.List(ctx, q, category)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load items"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetItem handles GET /v1/items/:id.
func (h *CatalogHandler) GetItem(c echo.Context) error {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || itemID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Res.Sweep(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reconcile holds"})
	}
	item, err := h.Items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load item"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": item})
}

// ListCategories handles GET /v1/categories.
func (h *CatalogHandler) ListCategories(c echo.Context) error {
	cats, err := h.Items.ListCategories(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load categories"})
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": cats})
}
