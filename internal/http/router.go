package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/agenty/agenty-backend/internal/http/handlers"
	httpMW "github.com/agenty/agenty-backend/internal/http/middleware"
	"github.com/agenty/agenty-backend/internal/observability"
	"github.com/agenty/agenty-backend/internal/platform/logger"
)

type RouterConfig struct {
	ServiceName     string
	AllowedOrigins  []string
	MaxRequestBytes int64

	Log     *logger.Logger
	Metrics *observability.Metrics

	AIHandler     *httpH.AIHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	ai := api.Group("/ai")
	{
		ai.Use(httpMW.MaxBodyBytes(cfg.MaxRequestBytes))
		ai.Use(httpMW.AttachSession())

		if cfg.AIHandler != nil {
			ai.POST("/answer", cfg.AIHandler.AnswerDataQuestions)
			ai.POST("/insight-cards", cfg.AIHandler.GenerateInsightCards)
			ai.POST("/suggestions", cfg.AIHandler.GetSmartSuggestions)
			ai.POST("/bookmarks", cfg.AIHandler.BookmarkInsight)
		}
	}

	return r
}
