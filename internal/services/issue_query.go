package services

import (
	"github.com/rkalenko/qcdash/internal/models"
	"gorm.io/gorm"
)

// IssueQueryService serves the issue and return listings behind the
// dashboard tables, with the same role scoping as the aggregate stats.
type IssueQueryService struct {
	db    *gorm.DB
	users *UserService
}

func NewIssueQueryService(db *gorm.DB) *IssueQueryService {
	return &IssueQueryService{db: db, users: NewUserService(db)}
}

type IssueListRequest struct {
	Page      int
	PageSize  int
	StartDate string
	EndDate   string
	SourceID  uint
	Severity  int
	Category  string
	Keyword   string
}

type IssueListResponse struct {
	Total int64          `json:"total"`
	Items []models.Issue `json:"items"`
}

func (s *IssueQueryService) List(viewer *Viewer, req *IssueListRequest) (*IssueListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 200 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.Issue{})
	query, err := s.applyScope(query, viewer)
	if err != nil {
		return nil, err
	}

	if req.StartDate != "" {
		query = query.Where("issue_date >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("issue_date <= ?", req.EndDate)
	}
	if req.SourceID > 0 {
		query = query.Where("source_id = ?", req.SourceID)
	}
	if req.Severity > 0 {
		query = query.Where("severity_rate = ?", req.Severity)
	}
	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}
	if req.Keyword != "" {
		pattern := "%" + req.Keyword + "%"
		query = query.Where("issue_type LIKE ? OR responsible LIKE ? OR comment LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Issue
	if err := query.Preload("Source").Preload("ResolvedUser").
		Order("issue_date DESC, id DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&items).Error; err != nil {
		return nil, err
	}

	return &IssueListResponse{Total: total, Items: items}, nil
}

type ReturnListRequest struct {
	Page      int
	PageSize  int
	StartDate string
	EndDate   string
	Keyword   string
}

type ReturnListResponse struct {
	Total int64                 `json:"total"`
	Items []models.ReturnRecord `json:"items"`
}

func (s *IssueQueryService) ListReturns(viewer *Viewer, req *ReturnListRequest) (*ReturnListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 200 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.ReturnRecord{})
	query, err := s.applyScope(query, viewer)
	if err != nil {
		return nil, err
	}

	if req.StartDate != "" {
		query = query.Where("return_date >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("return_date <= ?", req.EndDate)
	}
	if req.Keyword != "" {
		pattern := "%" + req.Keyword + "%"
		query = query.Where("client_name LIKE ? OR cc_abbreviation LIKE ? OR team_lead_name LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.ReturnRecord
	if err := query.Preload("ResolvedUser").
		Order("return_date DESC, id DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&items).Error; err != nil {
		return nil, err
	}

	return &ReturnListResponse{Total: total, Items: items}, nil
}

func (s *IssueQueryService) applyScope(query *gorm.DB, viewer *Viewer) (*gorm.DB, error) {
	switch viewer.Role {
	case models.RoleAdmin:
		return query, nil
	case models.RoleTeamLead:
		ids, err := s.users.TeamMemberIDs(viewer.UserID)
		if err != nil {
			return nil, err
		}
		return query.Where("resolved_user_id IN ?", ids), nil
	default:
		return query.Where("resolved_user_id = ?", viewer.UserID), nil
	}
}
