package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ticket-admin/security"
)

type Services struct {
	Sessions  Sessions
	Dashboard Dashboard
	Tickets   Tickets
	Catalog   Catalog
}

type Options struct {
	SessionTTL    time.Duration
	SecureCookie  bool
	EnableMetrics bool
	// LoginLimiter throttles POST /login when set.
	LoginLimiter *security.RateLimiter
	// Health reports dependency health for GET /health.
	Health func(ctx context.Context) error
}

// NewRouter wires every admin route onto a fresh echo instance.
func NewRouter(svc Services, opts Options) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(RequestLogger())

	auth := NewAuthHandler(svc.Sessions, opts.SessionTTL, opts.SecureCookie)
	tickets := NewTicketHandler(svc.Sessions, svc.Dashboard, svc.Tickets)
	catalog := NewCatalogHandler(svc.Sessions, svc.Catalog)

	e.GET("/health", healthHandler(opts.Health))
	if opts.EnableMetrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	api := e.Group("/api/admin")
	if opts.LoginLimiter != nil {
		api.POST("/login", auth.Login, opts.LoginLimiter.LoginRateLimit())
	} else {
		api.POST("/login", auth.Login)
	}
	api.POST("/logout", auth.Logout)

	admin := api.Group("", RequireSession(svc.Sessions))
	admin.GET("/me", auth.Me)

	// Tickets
	admin.GET("/tickets", tickets.ListTickets)
	admin.GET("/tickets/export", tickets.ExportTickets)
	admin.GET("/tickets/:id", tickets.GetTicket)
	admin.POST("/tickets/:id/status", tickets.ChangeStatus)
	admin.GET("/events/overview", tickets.EventOverview)
	admin.GET("/customers/summary", tickets.CustomerSummary)

	// Events
	admin.GET("/events", catalog.ListEvents)
	admin.POST("/events", catalog.CreateEvent)
	admin.GET("/events/:id", catalog.GetEvent)
	admin.PUT("/events/:id", catalog.UpdateEvent)
	admin.DELETE("/events/:id", catalog.DeleteEvent)

	// Categories
	admin.GET("/categories", catalog.ListCategories)
	admin.POST("/categories", catalog.CreateCategory)
	admin.PUT("/categories/:id", catalog.UpdateCategory)
	admin.DELETE("/categories/:id", catalog.DeleteCategory)
	admin.POST("/categories/:id/toggle-hide", catalog.ToggleCategoryHidden)

	// Banners
	admin.GET("/banners", catalog.ListBanners)
	admin.POST("/banners", catalog.CreateBanner)
	admin.PUT("/banners/:id", catalog.UpdateBanner)
	admin.DELETE("/banners/:id", catalog.DeleteBanner)
	admin.POST("/banners/:id/move-up", catalog.MoveBannerUp)
	admin.POST("/banners/:id/move-down", catalog.MoveBannerDown)

	// Orders and customers
	admin.DELETE("/orders/:id", catalog.DeleteOrder)
	admin.DELETE("/customers/:id", catalog.DeleteCustomer)

	return e
}

func healthHandler(check func(ctx context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	}
}
