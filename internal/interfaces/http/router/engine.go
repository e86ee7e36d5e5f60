package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/javierleyes/vidro-android/internal/domain/catalog"
	"github.com/javierleyes/vidro-android/internal/domain/schedule"
	"github.com/javierleyes/vidro-android/internal/infrastructure/logger"
	"github.com/javierleyes/vidro-android/internal/interfaces/http/handler"
	"github.com/javierleyes/vidro-android/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Config selects the optional behaviour of the engine
type Config struct {
	ServiceName string
	Tracing     bool
	Legacy      bool // serve glasses in the single-price shape
}

// Dependencies are the collaborators the engine serves
type Dependencies struct {
	Glasses catalog.GlassRepository
	Visits  schedule.VisitRepository
	Logger  *zap.Logger
	Metrics *middleware.HTTPMetrics // nil disables /metrics
	Ping    func() error            // nil reports healthy
}

// NewEngine builds the gin engine of the development API server:
//
//	GET    /glasses
//	PATCH  /glasses/:id
//	GET    /visits?status=N
//	POST   /visits
//	PATCH  /visits/:id
//	DELETE /visits/:id
//	GET    /health
//	GET    /metrics
func NewEngine(cfg Config, deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(logger.Recovery(log), logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(cfg.ServiceName, cfg.Tracing), middleware.RequestIDAttribute())
	if deps.Metrics != nil {
		engine.Use(deps.Metrics.Middleware())
		engine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	engine.GET("/health", healthHandler(deps.Ping))

	var glassOpts []handler.GlassHandlerOption
	if cfg.Legacy {
		glassOpts = append(glassOpts, handler.WithLegacyPayloads())
	}
	glasses := handler.NewGlassHandler(deps.Glasses, glassOpts...)
	visits := handler.NewVisitHandler(deps.Visits)

	groups := []*DomainGroup{
		NewDomainGroup("glasses", "/glasses").
			Use(middleware.BodyLimit(middleware.DefaultBodyLimit)).
			GET("", glasses.List).
			PATCH("/:id", glasses.UpdatePrice),
		NewDomainGroup("visits", "/visits").
			Use(middleware.BodyLimit(middleware.DefaultBodyLimit)).
			GET("", visits.List).
			POST("", visits.Create).
			PATCH("/:id", visits.Patch).
			DELETE("/:id", visits.Delete),
	}

	r := NewRouter(engine)
	for _, g := range groups {
		r.Register(g)
		log.Debug("Registered route group", zap.String("group", g.Name()), zap.String("prefix", g.Prefix()))
	}
	r.Setup()

	return engine
}

func healthHandler(ping func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			if err := ping(); err != nil {
				logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":   "unhealthy",
					"time":     time.Now().Format(time.RFC3339),
					"database": "error",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
