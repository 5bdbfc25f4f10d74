package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"puretasks/pkg/metrics"
	"puretasks/recurring-task-service/internal/service"
)

type TaskEventHandler struct {
	processor *service.Processor
	logger    *zap.Logger
}

func NewTaskEventHandler(processor *service.Processor, logger *zap.Logger) *TaskEventHandler {
	return &TaskEventHandler{
		processor: processor,
		logger:    logger,
	}
}

// Handle handles POST /task-events, the route the bus pushes task-events
// deliveries to. Application-level failures are acknowledged with an
// error status; only a structurally invalid envelope surfaces as a 500
// so the bus's own retry policy applies to those alone.
func (h *TaskEventHandler) Handle(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read request body"})
		return
	}

	start := time.Now()
	ack, err := h.processor.ProcessRaw(c.Request.Context(), body)
	if err != nil {
		h.logger.Error("Failed to handle task event", zap.Error(err))
		metrics.RecordEventProcessed("recurring-task-service", "task-events", "invalid", time.Since(start))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	metrics.RecordEventProcessed("recurring-task-service", "task-events", ack.Status, time.Since(start))

	c.JSON(http.StatusOK, ack)
}
