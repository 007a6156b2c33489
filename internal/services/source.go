package services

import (
	"strings"

	"github.com/rkalenko/qcdash/internal/models"
	"github.com/rkalenko/qcdash/pkg/response"
	"gorm.io/gorm"
)

// SourceService manages the registered issue spreadsheets.
type SourceService struct {
	db *gorm.DB
}

func NewSourceService(db *gorm.DB) *SourceService {
	return &SourceService{db: db}
}

type SourceListRequest struct {
	Page       int
	PageSize   int
	ActiveOnly bool
	Keyword    string
}

type SourceListResponse struct {
	Total int64                `json:"total"`
	Items []models.IssueSource `json:"items"`
}

func (s *SourceService) List(req *SourceListRequest) (*SourceListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 200 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.IssueSource{})
	if req.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if req.Keyword != "" {
		pattern := "%" + req.Keyword + "%"
		query = query.Where("name LIKE ? OR display_name LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.IssueSource
	if err := query.Order("id").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&items).Error; err != nil {
		return nil, err
	}

	return &SourceListResponse{Total: total, Items: items}, nil
}

type SourceCreateRequest struct {
	Name          string `json:"name" binding:"required"`
	DisplayName   string `json:"display_name"`
	SpreadsheetID string `json:"spreadsheet_id" binding:"required"`
	SheetName     string `json:"sheet_name"`
	IsActive      *bool  `json:"is_active"`
}

func (s *SourceService) Create(req *SourceCreateRequest, createdBy uint) (*models.IssueSource, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, response.NewBadRequest("source name is required")
	}

	var existing models.IssueSource
	if err := s.db.Where("name = ?", name).First(&existing).Error; err == nil {
		return nil, response.NewConflict("source name already exists")
	}

	source := &models.IssueSource{
		Name:          name,
		DisplayName:   strings.TrimSpace(req.DisplayName),
		SpreadsheetID: strings.TrimSpace(req.SpreadsheetID),
		SheetName:     strings.TrimSpace(req.SheetName),
		IsActive:      true,
		CreatedBy:     createdBy,
	}
	if source.DisplayName == "" {
		source.DisplayName = name
	}
	if req.IsActive != nil {
		source.IsActive = *req.IsActive
	}

	if err := s.db.Create(source).Error; err != nil {
		return nil, err
	}
	return source, nil
}

type SourceUpdateRequest struct {
	DisplayName   *string `json:"display_name"`
	SpreadsheetID *string `json:"spreadsheet_id"`
	SheetName     *string `json:"sheet_name"`
	IsActive      *bool   `json:"is_active"`
}

func (s *SourceService) Update(id uint, req *SourceUpdateRequest) (*models.IssueSource, error) {
	var source models.IssueSource
	if err := s.db.First(&source, id).Error; err != nil {
		return nil, response.NewNotFound("source not found")
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*req.DisplayName)
	}
	if req.SpreadsheetID != nil {
		updates["spreadsheet_id"] = strings.TrimSpace(*req.SpreadsheetID)
	}
	if req.SheetName != nil {
		updates["sheet_name"] = strings.TrimSpace(*req.SheetName)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(&source).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &source, nil
}

// Delete soft-deletes a source. Its imported issues stay in place so
// historical dashboards keep working.
func (s *SourceService) Delete(id uint) error {
	return s.db.Delete(&models.IssueSource{}, id).Error
}

func (s *SourceService) GetByID(id uint) (*models.IssueSource, error) {
	var source models.IssueSource
	if err := s.db.First(&source, id).Error; err != nil {
		return nil, err
	}
	return &source, nil
}

type SyncLogListRequest struct {
	Page     int
	PageSize int
	SourceID uint
	Status   string
}

type SyncLogListResponse struct {
	Total int64            `json:"total"`
	Items []models.SyncLog `json:"items"`
}

func (s *SourceService) ListSyncLogs(req *SyncLogListRequest) (*SyncLogListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 200 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.SyncLog{})
	if req.SourceID > 0 {
		query = query.Where("source_id = ?", req.SourceID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.SyncLog
	if err := query.Order("id DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&items).Error; err != nil {
		return nil, err
	}

	return &SyncLogListResponse{Total: total, Items: items}, nil
}

type ReturnsSyncLogListResponse struct {
	Total int64                   `json:"total"`
	Items []models.ReturnsSyncLog `json:"items"`
}

func (s *SourceService) ListReturnsSyncLogs(page, pageSize int, status string) (*ReturnsSyncLogListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}

	query := s.db.Model(&models.ReturnsSyncLog{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.ReturnsSyncLog
	if err := query.Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error; err != nil {
		return nil, err
	}

	return &ReturnsSyncLogListResponse{Total: total, Items: items}, nil
}
