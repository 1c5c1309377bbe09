package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

// UpsertDraft stores the complete line list of a table's draft.
func (h *OrderHandler) UpsertDraft(c *gin.Context) {
	var req services.UpsertDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, "UpsertDraft", err)
		return
	}

	order, err := h.orderService.UpsertDraft(req)
	if err != nil {
		respondOrderError(c, "UpsertDraft: Error from orderService.UpsertDraft", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// parseOrderFilters reads the list filters shared by the order list and billing history.
func parseOrderFilters(c *gin.Context) (models.OrderFilters, bool) {
	var filters models.OrderFilters

	if tableStr := c.Query("table"); tableStr != "" {
		table, err := strconv.Atoi(tableStr)
		if err != nil || table <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table format.", "table must be a positive integer"))
			return filters, false
		}
		filters.TableNumber = &table
	}
	if status := c.Query("status"); status != "" {
		for _, st := range strings.Split(status, ",") {
			filters.Statuses = append(filters.Statuses, models.OrderStatus(strings.TrimSpace(st)))
		}
	}
	if q := c.Query("q"); q != "" {
		filters.Search = &q
	}
	if date := c.Query("date"); date != "" {
		filters.Date = &date
	}
	switch sort := c.DefaultQuery("sort", "newest"); sort {
	case "newest", "oldest":
		filters.Sort = sort
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid sort.", "sort must be newest or oldest"))
		return filters, false
	}

	page, pageSize, ok := parsePagination(c)
	if !ok {
		return filters, false
	}
	filters.Page, filters.PageSize = page, pageSize
	return filters, true
}

func (h *OrderHandler) respondOrderList(c *gin.Context, filters models.OrderFilters, orders []models.Order, totalCount int) {
	if orders == nil { // Ensure we return an empty list instead of null if no orders found
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      orders,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetOrders handles fetching orders with filters
func (h *OrderHandler) GetOrders(c *gin.Context) {
	filters, ok := parseOrderFilters(c)
	if !ok {
		return
	}
	orders, totalCount, err := h.orderService.GetOrders(filters)
	if err != nil {
		if filters.Date != nil && strings.Contains(err.Error(), "invalid date filter format") {
			utils.RespondValidationFailed(c, "Invalid date format. Use YYYY-MM-DD.")
			return
		}
		respondOrderError(c, "GetOrders: Error from orderService.GetOrders", err)
		return
	}
	h.respondOrderList(c, filters, orders, totalCount)
}

// GetBillingHistory lists finalized and deleted orders.
func (h *OrderHandler) GetBillingHistory(c *gin.Context) {
	filters, ok := parseOrderFilters(c)
	if !ok {
		return
	}
	orders, totalCount, err := h.orderService.GetBillingHistory(filters)
	if err != nil {
		if filters.Date != nil && strings.Contains(err.Error(), "invalid date filter format") {
			utils.RespondValidationFailed(c, "Invalid date format. Use YYYY-MM-DD.")
			return
		}
		respondOrderError(c, "GetBillingHistory: Error from orderService.GetBillingHistory", err)
		return
	}
	h.respondOrderList(c, filters, orders, totalCount)
}

// GetOrderByID handles fetching a single order by ID with its items
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	orderID, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrderByID(orderID)
	if err != nil {
		respondOrderError(c, "GetOrderByID: Error from orderService.GetOrderByID for ID "+c.Param("id"), err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrder handles the admin edit of items, discount and phone.
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	orderID, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	var req services.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, "UpdateOrder", err)
		return
	}
	order, err := h.orderService.UpdateOrder(orderID, req)
	if err != nil {
		respondOrderError(c, "UpdateOrder: Error from orderService.UpdateOrder", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus handles updating the status of an order
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	var req services.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, "UpdateOrderStatus", err)
		return
	}
	order, err := h.orderService.UpdateOrderStatus(orderID, req)
	if err != nil {
		respondOrderError(c, "UpdateOrderStatus: Error from orderService.UpdateOrderStatus", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// FinalizeOrder freezes an order with its billed items, discount and phone.
func (h *OrderHandler) FinalizeOrder(c *gin.Context) {
	orderID, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req services.FinalizeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, "FinalizeOrder", err)
		return
	}
	order, err := h.orderService.Finalize(orderID, p.UserID, req)
	if err != nil {
		respondOrderError(c, "FinalizeOrder: Error from orderService.Finalize", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// DeleteOrder soft-deletes an order.
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	orderID, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	if err := h.orderService.DeleteOrder(orderID); err != nil {
		respondOrderError(c, "DeleteOrder: Error from orderService.DeleteOrder", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}

// PurgeHistory wipes finalized and deleted orders after re-checking the caller's password.
func (h *OrderHandler) PurgeHistory(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req services.PurgeHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, "PurgeHistory", err)
		return
	}
	purged, err := h.orderService.PurgeHistory(p.UserID, req.Password)
	if err != nil {
		respondOrderError(c, "PurgeHistory: Error from orderService.PurgeHistory", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Billing history cleared", "deleted": purged})
}
