package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"puretasks/pkg/bus"
	"puretasks/pkg/trace"
	"puretasks/recurring-task-service/internal/handler"
)

const serviceName = "recurring-task-service"

type Router struct {
	Engine *gin.Engine
}

// NewRouter wires the bus ingress, subscription descriptor, health and
// metrics endpoints. db may be nil when the failed-event journal is
// disabled; readiness then skips the ping.
func NewRouter(taskEventHandler *handler.TaskEventHandler, pubSubName string, db *pgxpool.Pool) *Router {
	r := gin.Default()

	r.Use(traceMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Recurring Task Service",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   serviceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/readyz", func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"status": "db_not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/dapr/subscribe", func(c *gin.Context) {
		c.JSON(http.StatusOK, []bus.Subscription{
			{PubSubName: pubSubName, Topic: "task-events", Route: "/task-events"},
		})
	})

	r.POST("/task-events", taskEventHandler.Handle)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Router{Engine: r}
}

func traceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(trace.Header)
		if traceID == "" {
			traceID = trace.NewID()
		}
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.Header, traceID)
		c.Next()
	}
}
