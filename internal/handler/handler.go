package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/maxviazov/tayseer-service/internal/middleware"
	"github.com/maxviazov/tayseer-service/internal/service"
)

// Register mounts all public routes on the given engine.
func Register(r *gin.Engine, checks map[string]Pinger, svcs *service.Services) {
	h := NewHealthHandler(checks)

	// Health probes
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	// Docs endpoints (root-level)
	RegisterDocs(r)

	api := r.Group(APIV1Prefix)
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}

		products := api.Group(productsPath)
		NewInventoryHandler(svcs.Inventory).Register(products)
		NewResourceHandler(svcs.Products).Register(products)
		NewResourceHandler(svcs.Customers).Register(api.Group(customersPath))

		legal := api.Group(legalPath)
		{
			NewResourceHandler(svcs.Documents).Register(legal.Group(documentsPath))
			NewResourceHandler(svcs.Cases).Register(legal.Group(casesPath))
			NewResourceHandler(svcs.Contracts).Register(legal.Group(contractsPath))
			NewResourceHandler(svcs.Audits).Register(legal.Group(auditsPath))
			NewComplianceHandler(svcs.Compliance).Register(legal.Group(compliancePath))
		}
	}
}

// RouterOptions tunes the middleware chain.
type RouterOptions struct {
	RequestTimeout time.Duration
	// RateLimit is applied to /api routes only, so probes never get throttled. Nil disables it.
	RateLimit gin.HandlerFunc
}

// NewRouter builds the gin engine with the standard middleware chain and every route registered.
func NewRouter(logger zerolog.Logger, opts RouterOptions, checks map[string]Pinger, svcs *service.Services) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.AccessLog(logger),
		middleware.Recovery(logger),
		middleware.Timeout(opts.RequestTimeout),
	)
	if opts.RateLimit != nil {
		r.Use(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, APIV1Prefix) {
				opts.RateLimit(c)
				return
			}
			c.Next()
		})
	}
	Register(r, checks, svcs)
	return r
}
