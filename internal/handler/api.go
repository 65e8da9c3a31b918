package handler

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"productivity-service/internal/models"
	"productivity-service/internal/repository"
	"productivity-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func bindOptionalJSON(c *gin.Context, obj any) error {
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func recordViews(records []models.PredictionRecord) []models.RecordView {
	views := make([]models.RecordView, 0, len(records))
	for _, r := range records {
		views = append(views, r.View())
	}
	return views
}

// Predict handles the quick flow: score only, nothing stored
func (h *Handler) Predict(c *gin.Context) {
	var req models.MetricsRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.QuickPredict(c.Request.Context(), models.QuickForm.Resolve(req))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMessage(err)})
		return
	}

	c.JSON(http.StatusOK, result)
}

// SavePrediction handles the calendar flow. A blank user is answered with
// saved=false and nothing is stored.
func (h *Handler) SavePrediction(c *gin.Context) {
	var req models.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var date time.Time
	if strings.TrimSpace(req.Date) != "" {
		d, err := time.Parse(models.DateLayout, strings.TrimSpace(req.Date))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = d
	}

	rec, saved, err := h.svc.SaveDaily(c.Request.Context(), req.User, date, models.CalendarForm.Resolve(req.MetricsRequest))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMessage(err)})
		return
	}
	if !saved {
		c.JSON(http.StatusOK, gin.H{"saved": false})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"saved":    true,
		"record":   rec.View(),
		"fraction": rec.Fraction(),
		"message":  "Prediction saved for " + rec.User + " on " + rec.DateString(),
	})
}

// ListPredictions returns stored predictions; with ?user= only that user's,
// newest first, otherwise all of them in storage order
func (h *Handler) ListPredictions(c *gin.Context) {
	user := c.Query("user")

	records, err := h.svc.Records(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMessage(err)})
		return
	}
	if user != "" {
		records = service.SortByDateDesc(records)
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions": recordViews(records),
		"user":        user,
		"total":       len(records),
	})
}

// ListUsers returns distinct users in first-seen order
func (h *Handler) ListUsers(c *gin.Context) {
	view, err := h.svc.Browse(c.Request.Context(), "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMessage(err)})
		return
	}

	users := view.Users
	if users == nil {
		users = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": view.Total,
	})
}

// DeleteUser removes every prediction of a user
func (h *Handler) DeleteUser(c *gin.Context) {
	user := c.Param("user")

	view, err := h.svc.DeleteUser(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMessage(err)})
		return
	}

	users := view.Users
	if users == nil {
		users = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"deleted": user,
		"users":   users,
		"total":   view.Total,
	})
}

// GetModel describes the loaded model
func (h *Handler) GetModel(c *gin.Context) {
	c.JSON(http.StatusOK, h.model)
}

// ExportCSV exports predictions in the storage schema
func (h *Handler) ExportCSV(c *gin.Context) {
	records, err := h.svc.Records(c.Request.Context(), c.Query("user"))
	if err != nil {
		h.logger.Error("Failed to export CSV", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMessage(err)})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=user_predictions.csv")

	writer := csv.NewWriter(c.Writer)
	writer.Write(repository.Columns)
	for _, r := range records {
		writer.Write(repository.EncodeRecord(r))
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logger.Error("Failed to write CSV export", zap.Int("records", len(records)), zap.Error(err))
	}
}

// ExportJSON exports predictions to JSON
func (h *Handler) ExportJSON(c *gin.Context) {
	records, err := h.svc.Records(c.Request.Context(), c.Query("user"))
	if err != nil {
		h.logger.Error("Failed to export JSON", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMessage(err)})
		return
	}

	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", "attachment; filename=user_predictions.json")

	encoder := json.NewEncoder(c.Writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(recordViews(records)); err != nil {
		h.logger.Error("Failed to write JSON export", zap.Int("records", len(records)), zap.Error(err))
	}
}
