package handlers

import (
	"errors"
	"net/http"

	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// MenuHandler holds the menu service.
type MenuHandler struct {
	menuService services.MenuService
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(ms services.MenuService) *MenuHandler {
	return &MenuHandler{menuService: ms}
}

func (h *MenuHandler) respondError(c *gin.Context, where string, err error) {
	utils.LogError(err, where)
	switch {
	case errors.Is(err, services.ErrMenuItemNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Menu item not found.", err.Error()))
	case errors.Is(err, services.ErrItemNameExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Menu item name already exists.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondValidationFailed(c, err.Error())
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to process menu request.", "Internal error"))
	}
}

func (h *MenuHandler) CreateMenuItem(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req services.CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, "CreateMenuItem", err)
		return
	}
	item, err := h.menuService.CreateItem(p.UserID, req)
	if err != nil {
		h.respondError(c, "CreateMenuItem: Error from menuService.CreateItem", err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetMenuItems lists the menu, optionally filtered by ?q= on the name.
func (h *MenuHandler) GetMenuItems(c *gin.Context) {
	var search *string
	if q := c.Query("q"); q != "" {
		search = &q
	}
	items, err := h.menuService.GetItems(search)
	if err != nil {
		h.respondError(c, "GetMenuItems: Error from menuService.GetItems", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (h *MenuHandler) GetMenuItemByID(c *gin.Context) {
	id, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	item, err := h.menuService.GetItemByID(id)
	if err != nil {
		h.respondError(c, "GetMenuItemByID: Error from menuService.GetItemByID", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) UpdateMenuItem(c *gin.Context) {
	id, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req services.UpdateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, "UpdateMenuItem", err)
		return
	}
	item, err := h.menuService.UpdateItem(p.UserID, id, req)
	if err != nil {
		h.respondError(c, "UpdateMenuItem: Error from menuService.UpdateItem", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) DeleteMenuItem(c *gin.Context) {
	id, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	if err := h.menuService.DeleteItem(id); err != nil {
		h.respondError(c, "DeleteMenuItem: Error from menuService.DeleteItem", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted successfully"})
}

// GetStockMovements lists the stock history of one menu item, newest first.
func (h *MenuHandler) GetStockMovements(c *gin.Context) {
	id, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	movements, total, err := h.menuService.GetMovements(id, page, pageSize)
	if err != nil {
		h.respondError(c, "GetStockMovements: Error from menuService.GetMovements", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      movements,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
