package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"productivity-service/internal/features"
	"productivity-service/internal/metrics"
	"productivity-service/internal/predictor"
	"productivity-service/internal/repository"
	"productivity-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ModelInfo describes the loaded model for the /model endpoint
type ModelInfo struct {
	Backend string   `json:"backend"`
	Columns []string `json:"features"`
}

// Handler handles HTTP requests for the page and the JSON API
type Handler struct {
	svc    *service.Productivity
	model  ModelInfo
	logger *zap.Logger
}

// NewHandler creates a new handler
func NewHandler(svc *service.Productivity, model ModelInfo, logger *zap.Logger) *Handler {
	return &Handler{
		svc:    svc,
		model:  model,
		logger: logger,
	}
}

// RegisterRoutes registers the page, the API and the health check
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.SetHTMLTemplate(pageTemplate)

	// Single page
	r.GET("/", h.Index)
	r.POST("/quick", h.QuickSubmit)
	r.POST("/calendar", h.CalendarSubmit)
	r.POST("/delete", h.DeleteSubmit)

	api := r.Group("/api/v1")
	{
		api.POST("/predict", h.Predict)
		api.POST("/predictions", h.SavePrediction)
		api.GET("/predictions", h.ListPredictions)
		api.DELETE("/predictions/:user", h.DeleteUser)
		api.GET("/users", h.ListUsers)
		api.GET("/model", h.GetModel)

		api.GET("/export/csv", h.ExportCSV)
		api.GET("/export/json", h.ExportJSON)
	}

	r.GET("/health", h.HealthCheck)
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "productivity-service",
		"model":   h.model.Backend,
	})
}

// failureMessage turns a workflow error into an operator-facing message
func failureMessage(err error) string {
	switch {
	case errors.Is(err, features.ErrConfiguration):
		return "Model configuration error: " + err.Error()
	case errors.Is(err, predictor.ErrModelInference):
		return "Model inference error: " + err.Error()
	case errors.Is(err, repository.ErrStoreCorrupt):
		return "Prediction store is corrupt: " + err.Error()
	default:
		return "Internal error: " + err.Error()
	}
}

// RequestLogger logs each request with a request id and counts it
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if status >= http.StatusInternalServerError {
			logger.Warn("Request failed", fields...)
			return
		}
		logger.Debug("Request handled", fields...)
	}
}
