package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"restaurant_pos_backend/internal/cart"
	"restaurant_pos_backend/internal/middleware"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 200
)

// parseInt64Param reads a positive integer path parameter and writes a 400 when it is not one.
func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := utils.StrToInt64(raw)
	if err == nil && id < 1 {
		err = fmt.Errorf("'%s' must be a positive integer", raw)
	}
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, fmt.Sprintf("Invalid %s format.", name), err.Error()))
		return 0, false
	}
	return id, true
}

func parseTableParam(c *gin.Context) (int, bool) {
	id, err := utils.StrToPositiveInt(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table number.", err.Error()))
		return 0, false
	}
	return id, true
}

func parseIndexParam(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid line index.", "index must be a non-negative integer"))
		return 0, false
	}
	return idx, true
}

// parsePagination reads page and page_size, applying defaults.
func parsePagination(c *gin.Context) (page, pageSize int, ok bool) {
	page, pageSize = defaultPage, defaultPageSize
	if pageStr := c.Query("page"); pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page format.", "page must be a positive integer"))
			return 0, 0, false
		}
		page = p
	}
	if pageSizeStr := c.Query("page_size"); pageSizeStr != "" {
		ps, err := strconv.Atoi(pageSizeStr)
		if err != nil || ps <= 0 || ps > maxPageSize {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page_size format.", fmt.Sprintf("page_size must be between 1 and %d", maxPageSize)))
			return 0, 0, false
		}
		pageSize = ps
	}
	return page, pageSize, true
}

// currentPrincipal returns the authenticated caller or writes a 401.
func currentPrincipal(c *gin.Context) (*middleware.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated", ""))
		return nil, false
	}
	return p, true
}

// respondOrderError maps order, draft and cart errors to API errors.
func respondOrderError(c *gin.Context, where string, err error) {
	utils.LogError(err, where)

	var conflict *services.ActiveOrderConflictError
	switch {
	case errors.As(err, &conflict):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeActiveOrder, conflict.Error(), string(conflict.Status)))
	case errors.Is(err, services.ErrStaleDraft):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeStaleDraft, "Draft was changed elsewhere. Reload it and try again.", err.Error()))
	case errors.Is(err, services.ErrOrderLocked), errors.Is(err, cart.ErrCartLocked):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeOrderLocked, "Order can no longer be changed.", err.Error()))
	case errors.Is(err, services.ErrInvalidTransition):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Order status change not allowed.", err.Error()))
	case errors.Is(err, services.ErrOrderNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", err.Error()))
	case errors.Is(err, services.ErrMenuItemNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Menu item not found.", err.Error()))
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Password is incorrect.", ""))
	case errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrInvalidPhone),
		errors.Is(err, services.ErrInvalidDiscount),
		errors.Is(err, services.ErrInvalidTable),
		errors.Is(err, services.ErrInvalidOrderStatus),
		errors.Is(err, services.ErrTotalsMismatch),
		errors.Is(err, services.ErrValidation),
		errors.Is(err, cart.ErrLineIndex),
		errors.Is(err, cart.ErrOutOfStock):
		utils.RespondValidationFailed(c, err.Error())
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to process order.", "Internal error"))
	}
}
