package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"equipment-booking-backend/internal/mw"
)

// RouterConfig carries the tunables of the HTTP layer.
type RouterConfig struct {
	RateLimit rate.Limit
	Burst     int
	CacheTTL  time.Duration
	// Limiter is shared with the caller so it can be pruned; one is built
	// from RateLimit and Burst when nil.
	Limiter *mw.IPRateLimiter
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = rate.Limit(10)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.Limiter == nil {
		cfg.Limiter = mw.NewIPRateLimiter(cfg.RateLimit, cfg.Burst)
	}

	r := gin.New()
	r.Use(gin.Recovery(), mw.Logger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	// Cached reads are dropped whenever a write succeeds.
	cacheStore := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)

	api := r.Group("/api")
	api.Use(mw.RateLimiter(cfg.Limiter), mw.FlushOnWrite(cacheStore))
	{
		api.GET("/equipment", h.ListEquipment)
		api.POST("/equipment", h.CreateEquipment)
		api.GET("/equipment/:id", h.GetEquipment)
		api.PUT("/equipment/:id", h.UpdateEquipment)
		api.DELETE("/equipment/:id", h.DeleteEquipment)
		api.GET("/equipment/:id/children", h.GetChildren)
		api.GET("/equipment/:id/ancestors", h.GetAncestors)
		api.GET("/equipment/:id/level", h.GetLevel)
		api.GET("/equipment/:id/parent-candidates", h.GetParentCandidates)
		api.GET("/equipment/:id/can-parent/:candidateId", h.CanHaveParent)
		api.GET("/equipment/:id/booked", h.GetBooked)
		api.GET("/equipment/:id/bookings", h.GetEquipmentBookings)

		api.GET("/hierarchy", h.GetHierarchy)
		api.GET("/hierarchy/roots", h.GetRoots)
		api.GET("/hierarchy/ordered", h.GetOrderedHierarchy)
		api.GET("/availability", h.GetAvailability)

		api.GET("/bookings", h.ListBookings)
		api.POST("/bookings", h.CreateBooking)
		api.GET("/bookings/:id", h.GetBooking)
		api.PATCH("/bookings/:id/status", h.UpdateBookingStatus)
		api.DELETE("/bookings/:id", h.DeleteBooking)

		api.POST("/import", h.Import)
		api.GET("/export/:kind", caching, h.Export)
		api.POST("/refresh", h.Refresh)
	}

	return r
}
