package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrashed98/blueprint-cms/internal/core/blueprint"
	"github.com/mrashed98/blueprint-cms/internal/core/fieldtype"
)

type BlueprintHandler struct {
	blueprintService *blueprint.Service
}

func NewBlueprintHandler(blueprintService *blueprint.Service) *BlueprintHandler {
	return &BlueprintHandler{blueprintService: blueprintService}
}

func (h *BlueprintHandler) Create(c *gin.Context) {
	var req blueprint.CreateBlueprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	bp, err := h.blueprintService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bp)
}

// List accepts optional ?type= and ?category= filters.
func (h *BlueprintHandler) List(c *gin.Context) {
	filter := blueprint.ListFilter{
		Type:     blueprint.Type(c.Query("type")),
		Category: c.Query("category"),
	}

	resp, err := h.blueprintService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// blueprintDetail flags fields whose type this server does not recognise,
// so editors can warn before a save is rejected.
type blueprintDetail struct {
	*blueprint.Blueprint
	UnknownFieldTypes []string `json:"unknownFieldTypes,omitempty"`
}

func (h *BlueprintHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	bp, err := h.blueprintService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, blueprintDetail{Blueprint: bp, UnknownFieldTypes: blueprint.UnknownFieldTypes(bp)})
}

func (h *BlueprintHandler) Update(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req blueprint.UpdateBlueprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	bp, err := h.blueprintService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bp)
}

func (h *BlueprintHandler) Delete(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.blueprintService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// FieldTypes serves the field type registry, grouped for the editor palette.
func (h *BlueprintHandler) FieldTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"fieldTypes": fieldtype.All(),
		"categories": fieldtype.ByCategory(),
	})
}
