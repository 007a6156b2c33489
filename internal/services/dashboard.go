package services

import (
	"github.com/rkalenko/qcdash/internal/models"
	"gorm.io/gorm"
)

// DashboardService aggregates quality analytics. Every query is scoped by the
// viewer's role: admins see everything, team leads see their team, agents see
// only rows linked to themselves.
type DashboardService struct {
	db    *gorm.DB
	users *UserService
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db, users: NewUserService(db)}
}

// Viewer identifies who is asking; taken from the JWT claims.
type Viewer struct {
	UserID uint
	Role   string
}

type DashboardStatsRequest struct {
	StartDate string // YYYY-MM-DD, inclusive
	EndDate   string // YYYY-MM-DD, inclusive
	TypeLimit int
	UserLimit int
}

type SeverityCount struct {
	SeverityRate int   `json:"severity_rate"`
	Count        int64 `json:"count"`
}

type TypeCount struct {
	IssueType string `json:"issue_type"`
	Count     int64  `json:"count"`
}

type UserIssueCount struct {
	UserID   uint   `json:"user_id"`
	FullName string `json:"full_name"`
	Count    int64  `json:"count"`
}

type DashboardStats struct {
	TotalIssues    int64            `json:"total_issues"`
	ClientIssues   int64            `json:"client_issues"`
	InternalIssues int64            `json:"internal_issues"`
	UnlinkedIssues int64            `json:"unlinked_issues"`
	BySeverity     []SeverityCount  `json:"by_severity"`
	TopTypes       []TypeCount      `json:"top_types"`
	TopUsers       []UserIssueCount `json:"top_users"`
	ReturnedLeads  int64            `json:"returned_leads"`
	FaultLeads     int64            `json:"fault_leads"`
}

// GetStats computes the dashboard aggregate for one viewer.
func (s *DashboardService) GetStats(viewer *Viewer, req *DashboardStatsRequest) (*DashboardStats, error) {
	if req.TypeLimit <= 0 {
		req.TypeLimit = 10
	}
	if req.UserLimit <= 0 {
		req.UserLimit = 10
	}

	scopeIDs, scoped, err := s.scopeUserIDs(viewer)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{}

	issues := s.issueQuery(req, scopeIDs, scoped)
	if err := issues.Count(&stats.TotalIssues).Error; err != nil {
		return nil, err
	}
	if err := s.issueQuery(req, scopeIDs, scoped).Where("category = ?", "client").Count(&stats.ClientIssues).Error; err != nil {
		return nil, err
	}
	if err := s.issueQuery(req, scopeIDs, scoped).Where("category = ?", "internal").Count(&stats.InternalIssues).Error; err != nil {
		return nil, err
	}
	if err := s.issueQuery(req, scopeIDs, scoped).Where("resolved_user_id IS NULL").Count(&stats.UnlinkedIssues).Error; err != nil {
		return nil, err
	}

	if err := s.issueQuery(req, scopeIDs, scoped).
		Select("severity_rate, COUNT(*) AS count").
		Where("severity_rate IS NOT NULL").
		Group("severity_rate").
		Order("severity_rate").
		Scan(&stats.BySeverity).Error; err != nil {
		return nil, err
	}

	if err := s.issueQuery(req, scopeIDs, scoped).
		Select("issue_type, COUNT(*) AS count").
		Group("issue_type").
		Order("count DESC").
		Limit(req.TypeLimit).
		Scan(&stats.TopTypes).Error; err != nil {
		return nil, err
	}

	if err := s.issueQuery(req, scopeIDs, scoped).
		Select("users.id AS user_id, users.full_name, COUNT(issues.id) AS count").
		Joins("JOIN users ON users.id = issues.resolved_user_id").
		Group("users.id, users.full_name").
		Order("count DESC").
		Limit(req.UserLimit).
		Scan(&stats.TopUsers).Error; err != nil {
		return nil, err
	}

	type returnTotals struct {
		Total int64
		Fault int64
	}
	var returns returnTotals
	if err := s.returnQuery(req, scopeIDs, scoped).
		Select("COALESCE(SUM(total_leads),0) AS total, COALESCE(SUM(fault_leads),0) AS fault").
		Scan(&returns).Error; err != nil {
		return nil, err
	}
	stats.ReturnedLeads = returns.Total
	stats.FaultLeads = returns.Fault

	return stats, nil
}

// scopeUserIDs resolves the viewer into the set of user ids their view is
// restricted to. Admins are unscoped.
func (s *DashboardService) scopeUserIDs(viewer *Viewer) ([]uint, bool, error) {
	switch viewer.Role {
	case models.RoleAdmin:
		return nil, false, nil
	case models.RoleTeamLead:
		ids, err := s.users.TeamMemberIDs(viewer.UserID)
		if err != nil {
			return nil, false, err
		}
		return ids, true, nil
	default:
		return []uint{viewer.UserID}, true, nil
	}
}

func (s *DashboardService) issueQuery(req *DashboardStatsRequest, scopeIDs []uint, scoped bool) *gorm.DB {
	query := s.db.Model(&models.Issue{})
	if req.StartDate != "" {
		query = query.Where("issue_date >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("issue_date <= ?", req.EndDate)
	}
	if scoped {
		query = query.Where("resolved_user_id IN ?", scopeIDs)
	}
	return query
}

func (s *DashboardService) returnQuery(req *DashboardStatsRequest, scopeIDs []uint, scoped bool) *gorm.DB {
	query := s.db.Model(&models.ReturnRecord{})
	if req.StartDate != "" {
		query = query.Where("return_date >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("return_date <= ?", req.EndDate)
	}
	if scoped {
		query = query.Where("resolved_user_id IN ?", scopeIDs)
	}
	return query
}
