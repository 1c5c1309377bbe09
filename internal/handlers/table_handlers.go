package handlers

import (
	"errors"
	"net/http"

	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TableHandler holds the table service.
type TableHandler struct {
	tableService services.TableService
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(ts services.TableService) *TableHandler {
	return &TableHandler{tableService: ts}
}

func (h *TableHandler) respondError(c *gin.Context, where string, err error) {
	utils.LogError(err, where)
	switch {
	case errors.Is(err, services.ErrTableNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found.", err.Error()))
	case errors.Is(err, services.ErrTableExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Table already exists.", err.Error()))
	case errors.Is(err, services.ErrInvalidTable):
		utils.RespondValidationFailed(c, err.Error())
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to process table request.", "Internal error"))
	}
}

func (h *TableHandler) CreateTable(c *gin.Context) {
	var req services.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, "CreateTable", err)
		return
	}
	table, err := h.tableService.CreateTable(req)
	if err != nil {
		h.respondError(c, "CreateTable: Error from tableService.CreateTable", err)
		return
	}
	c.JSON(http.StatusCreated, table)
}

// GetTables lists every table with its status and seconds occupied.
func (h *TableHandler) GetTables(c *gin.Context) {
	tables, err := h.tableService.GetTables()
	if err != nil {
		h.respondError(c, "GetTables: Error from tableService.GetTables", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tables})
}

func (h *TableHandler) DeleteTable(c *gin.Context) {
	id, ok := parseTableParam(c)
	if !ok {
		return
	}
	if err := h.tableService.DeleteTable(id); err != nil {
		h.respondError(c, "DeleteTable: Error from tableService.DeleteTable", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Table deleted successfully"})
}

func (h *TableHandler) ToggleTable(c *gin.Context) {
	id, ok := parseTableParam(c)
	if !ok {
		return
	}
	table, err := h.tableService.ToggleTable(id)
	if err != nil {
		h.respondError(c, "ToggleTable: Error from tableService.ToggleTable", err)
		return
	}
	c.JSON(http.StatusOK, table)
}
