package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rkalenko/qcdash/internal/middleware"
	"github.com/rkalenko/qcdash/internal/services"
	"github.com/rkalenko/qcdash/pkg/response"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
	queryService     *services.IssueQueryService
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: services.NewDashboardService(db),
		queryService:     services.NewIssueQueryService(db),
	}
}

func viewerFromContext(c *gin.Context) *services.Viewer {
	return &services.Viewer{
		UserID: middleware.GetUserID(c),
		Role:   middleware.GetRole(c),
	}
}

// GetStats returns the role-scoped dashboard aggregate
// GET /api/dashboard/stats
func (h *DashboardHandler) GetStats(c *gin.Context) {
	req := &services.DashboardStatsRequest{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		TypeLimit: queryInt(c, "type_limit", 10),
		UserLimit: queryInt(c, "user_limit", 10),
	}

	stats, err := h.dashboardService.GetStats(viewerFromContext(c), req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, stats)
}

// ListIssues returns the role-scoped issue listing
// GET /api/issues
func (h *DashboardHandler) ListIssues(c *gin.Context) {
	req := &services.IssueListRequest{
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Severity:  queryInt(c, "severity", 0),
		Category:  c.Query("category"),
		Keyword:   c.Query("keyword"),
	}
	if v := queryInt(c, "source_id", 0); v > 0 {
		req.SourceID = uint(v)
	}

	resp, err := h.queryService.List(viewerFromContext(c), req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, resp)
}

// ListReturns returns the role-scoped return listing
// GET /api/returns
func (h *DashboardHandler) ListReturns(c *gin.Context) {
	req := &services.ReturnListRequest{
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
		Keyword:   c.Query("keyword"),
	}

	resp, err := h.queryService.ListReturns(viewerFromContext(c), req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, resp)
}
