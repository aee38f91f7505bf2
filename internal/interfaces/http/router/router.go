package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gescom/backend/internal/infrastructure/logger"
	"github.com/gescom/backend/internal/interfaces/http/handler"
	"github.com/gescom/backend/internal/interfaces/http/middleware"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Handlers bundles the route handlers wired by the server
type Handlers struct {
	Sync    *handler.SyncHandler
	Order   *handler.OrderHandler
	Journal *handler.JournalHandler
	Number  *handler.NumberHandler
}

// Setup assembles the gin engine with middleware and routes
func Setup(log *zap.Logger, h Handlers) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(logger.GinMiddleware(log))
	r.Use(logger.Recovery(log))
	r.Use(middleware.CORS())
	r.Use(middleware.Secure())
	r.Use(middleware.BodyLimit(maxBodyBytes))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		sync := api.Group("/sync")
		{
			sync.POST("/run", h.Sync.Run)
			sync.POST("/start", h.Sync.Start)
			sync.POST("/stop", h.Sync.Stop)
			sync.POST("/resume", h.Sync.Resume)
			sync.GET("/status", h.Sync.Status)
		}

		orders := api.Group("/orders")
		{
			orders.GET("", h.Order.List)
			orders.GET("/:id", h.Order.Get)
		}

		journals := api.Group("/journals")
		{
			journals.POST("/generate", h.Journal.Generate)
			journals.POST("/:id/validate", h.Journal.Validate)
			journals.GET("", h.Journal.List)
			journals.GET("/:id", h.Journal.Get)
		}

		numbers := api.Group("/numbers")
		{
			numbers.POST("/generate", h.Number.Generate)
			numbers.GET("/preview", h.Number.Preview)
			numbers.GET("/:number", h.Number.Lookup)
			numbers.DELETE("/:number", h.Number.Release)
		}
	}

	return r
}
