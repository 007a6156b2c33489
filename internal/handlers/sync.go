package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rkalenko/qcdash/internal/services"
	"github.com/rkalenko/qcdash/pkg/response"
	"gorm.io/gorm"
)

// SyncHandler exposes manual sync triggers and sync run history.
type SyncHandler struct {
	sourceService *services.SourceService
	returnsCfg    bool
}

func NewSyncHandler(db *gorm.DB, returnsConfigured bool) *SyncHandler {
	return &SyncHandler{
		sourceService: services.NewSourceService(db),
		returnsCfg:    returnsConfigured,
	}
}

// RunAll enqueues a sync of every active source
// POST /api/sync/run
func (h *SyncHandler) RunAll(c *gin.Context) {
	queue := services.GetTaskQueue()
	if queue == nil {
		response.ServerError(c, "task queue not initialized")
		return
	}

	if err := queue.Enqueue(&services.SyncTask{Kind: services.SyncKindAll}); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"message": "sync enqueued",
		"async":   queue.IsAsync(),
	})
}

// RunSource enqueues a sync of one source
// POST /api/sources/:id/sync
func (h *SyncHandler) RunSource(c *gin.Context) {
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
	if !source.IsActive {
		response.BadRequest(c, "source is inactive")
		return
	}

	queue := services.GetTaskQueue()
	if queue == nil {
		response.ServerError(c, "task queue not initialized")
		return
	}

	task := &services.SyncTask{Kind: services.SyncKindSource, SourceID: source.ID}
	if err := queue.Enqueue(task); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"message": "sync enqueued",
		"source":  source.Name,
		"async":   queue.IsAsync(),
	})
}

// RunReturns enqueues a returns feed sync
// POST /api/sync/returns
func (h *SyncHandler) RunReturns(c *gin.Context) {
	if !h.returnsCfg {
		response.BadRequest(c, "returns feed is not configured")
		return
	}

	queue := services.GetTaskQueue()
	if queue == nil {
		response.ServerError(c, "task queue not initialized")
		return
	}

	if err := queue.Enqueue(&services.SyncTask{Kind: services.SyncKindReturns}); err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"message": "returns sync enqueued",
		"async":   queue.IsAsync(),
	})
}

// ListLogs returns paginated issue sync runs
// GET /api/sync/logs
func (h *SyncHandler) ListLogs(c *gin.Context) {
	req := &services.SyncLogListRequest{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
		Status:   c.Query("status"),
	}
	if v := queryInt(c, "source_id", 0); v > 0 {
		req.SourceID = uint(v)
	}

	resp, err := h.sourceService.ListSyncLogs(req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, resp)
}

// ListReturnsLogs returns paginated returns sync runs
// GET /api/sync/returns/logs
func (h *SyncHandler) ListReturnsLogs(c *gin.Context) {
	resp, err := h.sourceService.ListReturnsSyncLogs(
		queryInt(c, "page", 1),
		queryInt(c, "page_size", 20),
		c.Query("status"),
	)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, resp)
}
