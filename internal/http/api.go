package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"fintrack/internal/domain"
	"fintrack/internal/service"
)

// TokenResolver turns a bearer token into the calling user.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*domain.User, error)
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users        service.UserService
	transactions service.TransactionService
	exports      service.ExportService
	tokens       TokenResolver
	logger       *logrus.Logger
	corsOrigins  []string
	metrics      http.Handler
	telemetry    instruments
}

// Options carries the optional collaborators of a Handler.
type Options struct {
	// Exports may be nil when no storage bucket is configured.
	Exports     service.ExportService
	Logger      *logrus.Logger
	CORSOrigins []string

	// Meter and Tracer default to no-ops.
	Meter  metric.Meter
	Tracer trace.Tracer

	// Metrics, when set, is served at GET /metrics.
	Metrics http.Handler
}

func NewHandler(users service.UserService, transactions service.TransactionService, tokens TokenResolver, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	meter := opts.Meter
	if meter == nil {
		meter = metricnoop.NewMeterProvider().Meter("")
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer("")
	}
	return &Handler{
		users:        users,
		transactions: transactions,
		exports:      opts.Exports,
		tokens:       tokens,
		logger:       logger,
		corsOrigins:  opts.CORSOrigins,
		metrics:      opts.Metrics,
		telemetry:    newInstruments(meter, tracer, logger),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.instrument(), h.requestLogger(), corsMiddleware(h.corsOrigins))

	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Backend is live and running!"})
	})

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		api.POST("/users", h.register)
		api.POST("/token", h.login)
	}

	authed := api.Group("", h.requireUser())
	{
		authed.GET("/users/me", h.me)

		authed.POST("/transactions", h.createTransaction)
		authed.GET("/transactions", h.listTransactions)
		authed.GET("/transactions/summary", h.summary)
		authed.GET("/transactions/by-amount", h.listByAmount)
		authed.GET("/transactions/by-date", h.listByDate)
		authed.GET("/transactions/by-category", h.listByCategory)
		authed.GET("/transactions/breakdown", h.breakdown)
		authed.GET("/transactions/monthly", h.monthly)
		authed.GET("/transactions/daily", h.daily)
		authed.GET("/transactions/spending-patterns", h.spendingPatterns)
		authed.GET("/transactions/health", h.health)
		authed.GET("/transactions/:id", h.getTransaction)
		authed.PUT("/transactions/:id", h.updateTransaction)
		authed.DELETE("/transactions/:id", h.deleteTransaction)

		authed.GET("/dashboard", h.dashboard)

		authed.POST("/exports", h.createExport)
		authed.GET("/exports", h.listExports)
		authed.DELETE("/exports", h.purgeExports)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 0
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimSuffix(o, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowAll {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if _, ok := allowed[strings.TrimSuffix(origin, "/")]; ok && origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
