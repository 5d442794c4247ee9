package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/mediscan/mediscan-api/internal/handler/health"
	"github.com/mediscan/mediscan-api/internal/handler/prometheus"
	"github.com/mediscan/mediscan-api/internal/middleware"
	"github.com/mediscan/mediscan-api/pkg/metrics"
	pkgvalidator "github.com/mediscan/mediscan-api/pkg/validator"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	publicH  []Handler
	protectH []Handler
	healthH  *health.Handler
	metricsH *prometheus.Handler
	config   RouterConfig
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	RateClientTTL    time.Duration
	CORSConfig       middleware.CORSConfig
	RequestTimeout   time.Duration
	MaxBodyBytes     int64
	MetricsPath      string
	Metrics          *metrics.Metrics
}

// Handlers groups the route owners by access level.
type Handlers struct {
	Public    []Handler
	Protected []Handler
	Health    *health.Handler
	// Metrics is optional; nil leaves the scrape endpoint unmounted.
	Metrics *prometheus.Handler
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, config RouterConfig) *Router {
	gin.SetMode(gin.ReleaseMode)

	// Report binding failures under json field names.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		pkgvalidator.Register(v)
	}

	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = middleware.DefaultMaxBodySize
	}
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}

	r := &Router{
		engine:   gin.New(),
		auth:     auth,
		publicH:  handlers.Public,
		protectH: handlers.Protected,
		healthH:  handlers.Health,
		metricsH: handlers.Metrics,
		config:   config,
	}

	r.engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
		middleware.SizeLimit(config.MaxBodyBytes),
		middleware.Timeout(config.RequestTimeout),
	)

	if config.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:      config.RateLimit,
			Burst:     config.RateBurst,
			ClientTTL: config.RateClientTTL,
		})
		r.engine.Use(limiter.RateLimit())
	}

	if config.Metrics != nil {
		r.engine.Use(middleware.Metrics(config.Metrics))
	}

	return r
}

func (r *Router) Setup() {
	if r.healthH != nil {
		r.healthH.RegisterRoutes(&r.engine.RouterGroup)
	}
	if r.metricsH != nil {
		r.engine.GET(r.config.MetricsPath, r.metricsH.Handler())
	}

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	for _, h := range r.publicH {
		h.RegisterRoutes(api)
	}

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	for _, h := range r.protectH {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
