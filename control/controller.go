package control

import (
	"context"
	"encoding/json"
	"maps"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/plugkit/auth"
	"github.com/jonwraymond/plugkit/health"
	"github.com/jonwraymond/plugkit/resilience"
)

// Controller answers the control queries and serves them over HTTP.
type Controller struct {
	health  *health.Controller
	version string
	environ map[string]any
	prefix  string
	router  chi.Router
}

// VersionResponse is the body of /version.
type VersionResponse struct {
	Version string `json:"version"`
}

// EnvironResponse is the body of /environ.
type EnvironResponse struct {
	Environ map[string]any `json:"environ"`
}

// HeartbeatResponse is the body of /heartbeat.
type HeartbeatResponse struct {
	IsAlive bool `json:"is_alive"`
}

// Version returns the application version.
func (c *Controller) Version() string {
	return c.version
}

// Environ returns a copy of the published environment. It is never nil.
func (c *Controller) Environ() map[string]any {
	out := make(map[string]any, len(c.environ))
	maps.Copy(out, c.environ)
	return out
}

// Heartbeat reports liveness.
func (c *Controller) Heartbeat() bool {
	return true
}

// Health runs one aggregation over the registry.
func (c *Controller) Health(ctx context.Context) (health.Report, error) {
	return c.health.Health(ctx)
}

// Checkers lists the plugins Health would probe.
func (c *Controller) Checkers() []string {
	return c.health.Checkers()
}

// Handler returns the control routes mounted under the router prefix.
func (c *Controller) Handler() http.Handler {
	if c.prefix == "" {
		return c.router
	}
	root := chi.NewRouter()
	root.Mount("/"+c.prefix, c.router)
	return root
}

type routeOptions struct {
	cfg      Config
	verifier auth.Verifier
	gatherer prometheus.Gatherer
}

func (c *Controller) routes(o routeOptions) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	if o.cfg.EnableHeartbeat {
		r.Get("/heartbeat", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, HeartbeatResponse{IsAlive: c.Heartbeat()})
		})
	}

	r.Group(func(r chi.Router) {
		if o.verifier != nil {
			r.Use(auth.Middleware(o.verifier))
		}
		if o.cfg.EnableVersion {
			r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, VersionResponse{Version: c.Version()})
			})
		}
		if o.cfg.EnableEnviron {
			r.Get("/environ", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, EnvironResponse{Environ: c.Environ()})
			})
		}
		if o.cfg.EnableHealth {
			h := http.Handler(health.Handler(c.health))
			if o.cfg.HealthRate > 0 {
				h = rateLimit(resilience.NewRateLimiter(resilience.RateLimiterConfig{
					Rate:  o.cfg.HealthRate,
					Burst: o.cfg.HealthBurst,
				}), h)
			}
			r.Method(http.MethodGet, "/health", h)
		}
		if o.cfg.EnableMetrics {
			r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))
		}
	})

	c.router = r
}

func rateLimit(rl *resilience.RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow() {
			secs := int(math.Ceil(rl.RetryAfter().Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
