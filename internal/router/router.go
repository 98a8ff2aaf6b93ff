package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // the Echo web framework handles routing

	"github.com/minigarage/showroom/internal/handler"    // handlers implementing the endpoint logic
	"github.com/minigarage/showroom/internal/middleware" // session, JWT and role middleware
)

// RegisterRoutes registers routes that require no session or
// authentication.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring probe this endpoint to verify the
	// service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated storefront endpoints.
// These are read-only and safe to serve from the response cache, so the
// cache middleware is applied here and nowhere else.  Passing a nil
// cache middleware (Redis unavailable at boot) registers the routes
// uncached.
func RegisterPublic(e *echo.Echo, p *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{}
	if cache != nil {
		mws = append(mws, cache)
	}
	// Browse the catalog with optional ?q= and ?category= filters.
	e.GET("/v1/items", p.ListItems, mws...)
	// Item detail page data.
	e.GET("/v1/items/:id", p.GetItem, mws...)
	// Distinct category labels for the filter dropdown.
	e.GET("/v1/categories", p.ListCategories, mws...)
}

// RegisterCart registers the session-scoped cart and checkout
// endpoints.  EnsureSession issues the opaque session cookie on first
// contact, so every handler in this group can rely on a session id
// being present in the request context.
func RegisterCart(e *echo.Echo, cart *handler.CartHandler, checkout *handler.CheckoutHandler) {
	g := e.Group("/v1", middleware.EnsureSession())
	// View the cart with items and running total.
	g.GET("/cart", cart.ViewCart)
	// Adding an item acquires a hold; a 409 means someone else holds it.
	g.POST("/cart/items/:id", cart.AddToCart)
	// Removing an item releases this session's hold on it.
	g.DELETE("/cart/items/:id", cart.RemoveFromCart)
	// Clearing releases every hold this session has on cart members.
	g.DELETE("/cart", cart.ClearCart)
	// Preview re-validates the cart and prunes stale entries.
	g.GET("/checkout", checkout.Preview)
	// Submit converts held items into an order atomically.
	g.POST("/checkout", checkout.Submit)
	// Receipt lookup by order code, bookmarkable after checkout.
	g.GET("/orders/:code", checkout.GetReceipt)
}

// RegisterAdmin registers the administrator panel.  Login is open; the
// rest of the group requires a valid access token carrying the ADMIN
// role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	e.POST("/v1/admin/login", a.Login)

	g := e.Group("/v1/admin")
	// Every route below runs the JWT check first, then the role check.
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))

	g.GET("/items", a.ListItems)
	g.POST("/items", a.CreateItem)
	g.PUT("/items/:id", a.UpdateItem)
	g.DELETE("/items/:id", a.DeleteItem)

	g.GET("/orders", a.ListOrders)
	g.GET("/orders/:code", a.GetOrder)
	g.PATCH("/orders/:code/status", a.UpdateOrderStatus)
	g.DELETE("/orders/:code", a.DeleteOrder)
}
