package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"puretasks/notification-service/internal/service"
	"puretasks/pkg/metrics"
)

type ReminderEventHandler struct {
	processor *service.Processor
	logger    *zap.Logger
}

func NewReminderEventHandler(processor *service.Processor, logger *zap.Logger) *ReminderEventHandler {
	return &ReminderEventHandler{
		processor: processor,
		logger:    logger,
	}
}

// Handle handles POST /reminders, the route the bus pushes reminders
// topic deliveries to. Only a structurally invalid envelope becomes a
// 500; dispatch failures are acknowledged with an error status.
func (h *ReminderEventHandler) Handle(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read request body"})
		return
	}

	start := time.Now()
	ack, err := h.processor.ProcessRaw(c.Request.Context(), body)
	if err != nil {
		h.logger.Error("Failed to handle reminder event", zap.Error(err))
		metrics.RecordEventProcessed("notification-service", "reminders", "invalid", time.Since(start))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	metrics.RecordEventProcessed("notification-service", "reminders", ack.Status, time.Since(start))

	c.JSON(http.StatusOK, ack)
}
