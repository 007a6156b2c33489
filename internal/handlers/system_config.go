package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rkalenko/qcdash/internal/services"
	"gorm.io/gorm"
)

type SystemConfigHandler struct {
	configService *services.SystemConfigService
	reportService *services.ReportService
}

func NewSystemConfigHandler(db *gorm.DB, reportService *services.ReportService) *SystemConfigHandler {
	return &SystemConfigHandler{
		configService: services.NewSystemConfigService(db),
		reportService: reportService,
	}
}

// ListGroup returns the settings in one config group
// GET /api/system/config/:group
func (h *SystemConfigHandler) ListGroup(c *gin.Context) {
	items, err := h.configService.ListGroup(c.Param("group"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type updateConfigRequest struct {
	Values map[string]string `json:"values" binding:"required"`
}

// UpdateGroup sets config values; the group in the path is informational,
// keys are global.
// PUT /api/system/config/:group
func (h *SystemConfigHandler) UpdateGroup(c *gin.Context) {
	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for key, value := range req.Values {
		if err := h.configService.Set(key, value); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	// Report schedule reacts to config changes immediately
	if c.Param("group") == "report" && h.reportService != nil {
		h.reportService.RefreshSchedule()
	}

	items, err := h.configService.ListGroup(c.Param("group"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
