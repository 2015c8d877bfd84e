// Package kernel assembles the storefront's HTTP handler: the global
// middleware stack wrapped around the API routes.
package kernel

import (
	"net/http"

	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/reqid"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

// HTTP is the configured router plus the handler built from it.
type HTTP struct {
	router  *router.Router
	handler http.Handler
}

// NewHTTP mounts the API routes behind the global middleware, outermost first:
//
//  1. metrics     total latency including everything below
//  2. recovery    a panic becomes a 500 instead of a dropped connection
//  3. request id  assigned before anything logs
//  4. logger      one line per request, tagged with the id
//  5. CORS        answers preflights before they count against the limit
//  6. rate limit  per-IP token bucket; nil disables it
func NewHTTP(h routes.Handlers, limiter *middleware.RateLimiter) *HTTP {
	r := router.New()
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(config.CORSOrigins()...)))
	if limiter != nil {
		r.Use(limiter.Middleware)
	}

	routes.RegisterAPI(r, h)
	return &HTTP{router: r, handler: r.Handler()}
}

func (k *HTTP) Handler() http.Handler { return k.handler }

// Routes lists every named route, for route:list.
func (k *HTTP) Routes() []router.RouteInfo { return k.router.Routes() }
