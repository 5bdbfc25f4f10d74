package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"puretasks/notification-service/internal/handler"
	"puretasks/pkg/bus"
	"puretasks/pkg/trace"
)

const serviceName = "notification-service"

type Router struct {
	Engine *gin.Engine
}

// NewRouter wires the bus ingress, subscription descriptor, health and
// metrics endpoints.
func NewRouter(reminderHandler *handler.ReminderEventHandler, pubSubName string) *Router {
	r := gin.Default()

	r.Use(traceMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Notification Service",
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
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/dapr/subscribe", func(c *gin.Context) {
		c.JSON(http.StatusOK, []bus.Subscription{
			{PubSubName: pubSubName, Topic: "reminders", Route: "/reminders"},
		})
	})

	r.POST("/reminders", reminderHandler.Handle)

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
