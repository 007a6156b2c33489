package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rkalenko/qcdash/internal/middleware"
	"github.com/rkalenko/qcdash/internal/services"
	"github.com/rkalenko/qcdash/pkg/response"
	"gorm.io/gorm"
)

type SourceHandler struct {
	sourceService *services.SourceService
}

func NewSourceHandler(db *gorm.DB) *SourceHandler {
	return &SourceHandler{
		sourceService: services.NewSourceService(db),
	}
}

// List returns paginated issue sources
// GET /api/sources
func (h *SourceHandler) List(c *gin.Context) {
	req := &services.SourceListRequest{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
		Keyword:  c.Query("keyword"),
	}
	if c.Query("active_only") == "true" {
		req.ActiveOnly = true
	}

	resp, err := h.sourceService.List(req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, resp)
}

// GetByID returns a source by ID
// GET /api/sources/:id
func (h *SourceHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid source id")
		return
	}

	source, err := h.sourceService.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "source not found")
		return
	}

	response.Success(c, source)
}

// Create registers a new issue source
// POST /api/sources
func (h *SourceHandler) Create(c *gin.Context) {
	var req services.SourceCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	source, err := h.sourceService.Create(&req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, source)
}

// Update updates a source
// PUT /api/sources/:id
func (h *SourceHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid source id")
		return
	}

	var req services.SourceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	source, err := h.sourceService.Update(uint(id), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, source)
}

// Delete soft-deletes a source
// DELETE /api/sources/:id
func (h *SourceHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid source id")
		return
	}

	if err := h.sourceService.Delete(uint(id)); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "source deleted successfully"})
}
