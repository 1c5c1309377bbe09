package handlers

import (
	"net/http"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// DraftHandler exposes the step-by-step draft operations of one table.
type DraftHandler struct {
	draftService services.DraftService
}

// NewDraftHandler creates a new DraftHandler.
func NewDraftHandler(ds services.DraftService) *DraftHandler {
	return &DraftHandler{draftService: ds}
}

func (h *DraftHandler) GetDraft(c *gin.Context) {
	table, ok := parseTableParam(c)
	if !ok {
		return
	}
	order, err := h.draftService.GetDraft(table)
	if err != nil {
		respondOrderError(c, "GetDraft: Error from draftService.GetDraft", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *DraftHandler) AddItem(c *gin.Context) {
	table, ok := parseTableParam(c)
	if !ok {
		return
	}
	var req services.AddDraftItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, "AddDraftItem", err)
		return
	}
	h.respond(c, "AddDraftItem", func() (*models.Order, error) { return h.draftService.AddItem(table, req) })
}

func (h *DraftHandler) IncreaseQty(c *gin.Context) {
	h.lineOp(c, "IncreaseDraftQty", h.draftService.IncreaseQty)
}

func (h *DraftHandler) DecreaseQty(c *gin.Context) {
	h.lineOp(c, "DecreaseDraftQty", h.draftService.DecreaseQty)
}

func (h *DraftHandler) RemoveItem(c *gin.Context) {
	h.lineOp(c, "RemoveDraftItem", h.draftService.RemoveItem)
}

func (h *DraftHandler) SetPhone(c *gin.Context) {
	table, ok := parseTableParam(c)
	if !ok {
		return
	}
	var req services.SetDraftPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondBindError(c, "SetDraftPhone", err)
		return
	}
	h.respond(c, "SetDraftPhone", func() (*models.Order, error) { return h.draftService.SetPhone(table, req) })
}

// Save moves the draft to saved. A table with an active order answers 409.
func (h *DraftHandler) Save(c *gin.Context) {
	table, ok := parseTableParam(c)
	if !ok {
		return
	}
	h.respond(c, "SaveDraft", func() (*models.Order, error) { return h.draftService.Save(table) })
}

func (h *DraftHandler) lineOp(c *gin.Context, where string, op func(table, index int) (*models.Order, error)) {
	table, ok := parseTableParam(c)
	if !ok {
		return
	}
	index, ok := parseIndexParam(c)
	if !ok {
		return
	}
	h.respond(c, where, func() (*models.Order, error) { return op(table, index) })
}

func (h *DraftHandler) respond(c *gin.Context, where string, call func() (*models.Order, error)) {
	order, err := call()
	if err != nil {
		respondOrderError(c, where+": Error from draftService", err)
		return
	}
	c.JSON(http.StatusOK, order)
}
