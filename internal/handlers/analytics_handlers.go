package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler serves the sales reports.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(as services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: as}
}

func (h *AnalyticsHandler) respondError(c *gin.Context, where string, err error) {
	utils.LogError(err, where)
	if errors.Is(err, services.ErrValidation) {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build report.", "Internal error"))
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		utils.RespondValidationFailed(c, name+" must be a positive integer")
		return 0, false
	}
	return n, true
}

// GetSummary provides today's, this week's and this month's sales.
func (h *AnalyticsHandler) GetSummary(c *gin.Context) {
	summary, err := h.analyticsService.GetSummary()
	if err != nil {
		h.respondError(c, "GetSummary: Error from analyticsService.GetSummary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetDailyTotals returns ?range= days of totals, 7 by default.
func (h *AnalyticsHandler) GetDailyTotals(c *gin.Context) {
	days, ok := queryInt(c, "range", services.DefaultDailyRange)
	if !ok {
		return
	}
	totals, err := h.analyticsService.GetDailyTotals(days)
	if err != nil {
		h.respondError(c, "GetDailyTotals: Error from analyticsService.GetDailyTotals", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": totals})
}

func (h *AnalyticsHandler) GetBestSellers(c *gin.Context) {
	limit, ok := queryInt(c, "limit", services.DefaultBestSellers)
	if !ok {
		return
	}
	sellers, err := h.analyticsService.GetBestSellers(limit)
	if err != nil {
		h.respondError(c, "GetBestSellers: Error from analyticsService.GetBestSellers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sellers})
}

// GetTotalByDate returns the total billed on ?date=YYYY-MM-DD.
func (h *AnalyticsHandler) GetTotalByDate(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		utils.RespondValidationFailed(c, "date is required (YYYY-MM-DD)")
		return
	}
	total, err := h.analyticsService.GetTotalByDate(date)
	if err != nil {
		h.respondError(c, "GetTotalByDate: Error from analyticsService.GetTotalByDate", err)
		return
	}
	c.JSON(http.StatusOK, total)
}

func (h *AnalyticsHandler) GetHighestSalesDay(c *gin.Context) {
	day, err := h.analyticsService.GetHighestSalesDay()
	if err != nil {
		h.respondError(c, "GetHighestSalesDay: Error from analyticsService.GetHighestSalesDay", err)
		return
	}
	c.JSON(http.StatusOK, day)
}
