package admin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/getmockd/stubd/pkg/engine"
	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/metrics"
	"github.com/getmockd/stubd/pkg/ratelimit"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/scenario"
	"github.com/getmockd/stubd/pkg/stub"
)

// DefaultMaxBodySize caps create and update payloads.
const DefaultMaxBodySize = 1 << 20

// StubService is the backend the API drives.
type StubService interface {
	Create(ctx context.Context, req *stub.Request) (stub.View, error)
	Get(ctx context.Context, id string) (stub.View, error)
	List(ctx context.Context) ([]stub.View, error)
	Update(ctx context.Context, id string, req *stub.Request) (stub.View, error)
	Delete(ctx context.Context, id string) error

	Rules(ctx context.Context) ([]engine.Summary, error)
	Scenarios(ctx context.Context) ([]scenario.State, error)
	SetScenarioState(ctx context.Context, name, state string) error
	ResetScenarios(ctx context.Context) error

	Requests(filter *requestlog.Filter) []*requestlog.Entry
	ClearRequests()
}

// API exposes a StubService over HTTP.
type API struct {
	svc         StubService
	log         *slog.Logger
	startTime   time.Time
	version     string
	maxBodySize int64
	cors        *CORSConfig
	metrics     *metrics.Set
	limiter     *ratelimit.Limiter
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *API) {
		if log != nil {
			a.log = log
		}
	}
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(a *API) { a.version = v }
}

// WithMaxBodySize overrides DefaultMaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBodySize = n
		}
	}
}

// WithCORS enables CORS headers for browser clients.
func WithCORS(cfg CORSConfig) Option {
	return func(a *API) { a.cors = &cfg }
}

// WithMetrics records admin traffic in m and serves it at GET /metrics.
func WithMetrics(m *metrics.Set) Option {
	return func(a *API) { a.metrics = m }
}

// WithRateLimit throttles clients with l. CORS preflights are not counted.
func WithRateLimit(l *ratelimit.Limiter) Option {
	return func(a *API) { a.limiter = l }
}

// New creates an API backed by svc.
func New(svc StubService, opts ...Option) *API {
	a := &API{
		svc:         svc,
		log:         logging.Nop(),
		startTime:   time.Now(),
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler returns the routed handler with middleware applied.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	a.registerRoutes(mux)

	var h http.Handler = mux
	if a.limiter != nil {
		h = ratelimit.Middleware(a.limiter)(h)
	}
	if a.cors != nil {
		h = newCORSMiddleware(h, *a.cors)
	}
	return a.loggingMiddleware(a.recoverMiddleware(h))
}

// Uptime returns how long the API has been up, in seconds.
func (a *API) Uptime() int {
	return int(time.Since(a.startTime).Seconds())
}
