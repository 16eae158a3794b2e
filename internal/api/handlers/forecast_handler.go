package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demand-forecast/internal/domain"
	"github.com/andresuchdata/demand-forecast/internal/pipeline"
)

// ForecastService is the subset of service.ForecastService the handler calls.
type ForecastService interface {
	Forecasts(ctx context.Context, productID int64) ([]domain.ForecastPoint, error)
	Predictions(ctx context.Context) ([]domain.ProductForecast, error)
	Trends(ctx context.Context, productID int64, days int) (*domain.ProductTrend, error)
	Alerts(ctx context.Context, status domain.AlertStatus) ([]domain.StockAlert, error)
	DismissAlert(ctx context.Context, alertID int64) error
	ResolveAlert(ctx context.Context, alertID int64) error
	RunAll(ctx context.Context) (*pipeline.BatchResult, error)
	RunProduct(ctx context.Context, productID int64) (*domain.RunOutcome, error)
}

type ForecastHandler struct {
	service ForecastService
}

func NewForecastHandler(service ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

// Register mounts the forecasting routes on group.
func (h *ForecastHandler) Register(group *gin.RouterGroup) {
	group.GET("/predictions", h.GetPredictions)
	group.POST("/train", h.Train)
	group.GET("/products/:id", h.GetProductForecast)
	group.POST("/products/:id/train", h.TrainProduct)
	group.GET("/trends/:id", h.GetTrends)

	alerts := group.Group("/alerts")
	alerts.GET("", h.GetAlerts)
	alerts.PUT("/:id/dismiss", h.DismissAlert)
	alerts.PUT("/:id/resolve", h.ResolveAlert)
}

func (h *ForecastHandler) GetPredictions(c *gin.Context) {
	results, err := h.service.Predictions(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch predictions")
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *ForecastHandler) GetProductForecast(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}

	points, err := h.service.Forecasts(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err, "failed to fetch forecast")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id":  productID,
		"predictions": points,
	})
}

func (h *ForecastHandler) GetTrends(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "0"))

	trend, err := h.service.Trends(c.Request.Context(), productID, days)
	if err != nil {
		respondError(c, err, "failed to fetch trends")
		return
	}

	c.JSON(http.StatusOK, trend)
}

func (h *ForecastHandler) GetAlerts(c *gin.Context) {
	status, ok := domain.ParseAlertStatus(c.DefaultQuery("status", string(domain.AlertStatusActive)))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert status"})
		return
	}

	alerts, err := h.service.Alerts(c.Request.Context(), status)
	if err != nil {
		respondError(c, err, "failed to fetch alerts")
		return
	}

	c.JSON(http.StatusOK, alerts)
}

func (h *ForecastHandler) DismissAlert(c *gin.Context) {
	h.transitionAlert(c, domain.AlertStatusDismissed, h.service.DismissAlert)
}

func (h *ForecastHandler) ResolveAlert(c *gin.Context) {
	h.transitionAlert(c, domain.AlertStatusResolved, h.service.ResolveAlert)
}

func (h *ForecastHandler) transitionAlert(c *gin.Context, status domain.AlertStatus, apply func(context.Context, int64) error) {
	alertID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := apply(c.Request.Context(), alertID); err != nil {
		respondError(c, err, "failed to update alert")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": alertID, "status": status})
}

// Train runs the batch synchronously and returns the per-product outcomes.
func (h *ForecastHandler) Train(c *gin.Context) {
	result, err := h.service.RunAll(c.Request.Context())
	if err != nil {
		respondError(c, err, "forecast run failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ForecastHandler) TrainProduct(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}

	outcome, err := h.service.RunProduct(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err, "forecast run failed")
		return
	}

	c.JSON(http.StatusOK, outcome)
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrAlertNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg(message)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
	}
}
