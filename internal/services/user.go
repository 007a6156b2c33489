package services

import (
	"errors"
	"strings"

	"github.com/rkalenko/qcdash/internal/models"
	"github.com/rkalenko/qcdash/internal/utils"
	"gorm.io/gorm"
)

// UserService manages the staff roster. The ingestion pipeline reads users
// for name matching; mutations happen here or through LDAP provisioning.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type UserListRequest struct {
	Page       int
	PageSize   int
	Role       string
	TeamLeadID uint
	Keyword    string
	ActiveOnly bool
}

type UserListResponse struct {
	Total int64         `json:"total"`
	Items []models.User `json:"items"`
}

func (s *UserService) List(req *UserListRequest) (*UserListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 200 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.User{})
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.TeamLeadID > 0 {
		query = query.Where("team_lead_id = ?", req.TeamLeadID)
	}
	if req.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if req.Keyword != "" {
		pattern := "%" + req.Keyword + "%"
		query = query.Where("username LIKE ? OR full_name LIKE ? OR abbreviation LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.User
	if err := query.Preload("TeamLead").Order("full_name").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&items).Error; err != nil {
		return nil, err
	}

	return &UserListResponse{Total: total, Items: items}, nil
}

type UserCreateRequest struct {
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password"`
	Email        string `json:"email"`
	FullName     string `json:"full_name" binding:"required"`
	Role         string `json:"role" binding:"required"`
	TeamLeadID   *uint  `json:"team_lead_id"`
	Abbreviation string `json:"abbreviation"`
}

func (s *UserService) Create(req *UserCreateRequest) (*models.User, error) {
	if !validRole(req.Role) {
		return nil, errors.New("invalid role")
	}

	var count int64
	s.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		return nil, errors.New("username already exists")
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		TeamLeadID:   req.TeamLeadID,
		Abbreviation: strings.ToUpper(strings.TrimSpace(req.Abbreviation)),
		AuthType:     "local",
		IsActive:     true,
	}
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

type UserUpdateRequest struct {
	Email        *string `json:"email"`
	FullName     *string `json:"full_name"`
	Role         *string `json:"role"`
	TeamLeadID   *uint   `json:"team_lead_id"`
	Abbreviation *string `json:"abbreviation"`
	IsActive     *bool   `json:"is_active"`
	Password     *string `json:"password"`
}

func (s *UserService) Update(id uint, req *UserUpdateRequest) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil {
		if !validRole(*req.Role) {
			return nil, errors.New("invalid role")
		}
		updates["role"] = *req.Role
	}
	if req.TeamLeadID != nil {
		updates["team_lead_id"] = *req.TeamLeadID
	}
	if req.Abbreviation != nil {
		updates["abbreviation"] = strings.ToUpper(strings.TrimSpace(*req.Abbreviation))
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hash
	}

	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Delete(id uint) error {
	return s.db.Delete(&models.User{}, id).Error
}

func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("TeamLead").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// TeamMemberIDs returns the ids of a team lead's active agents, including
// the lead. Used for role-scoped filtering.
func (s *UserService) TeamMemberIDs(teamLeadID uint) ([]uint, error) {
	var ids []uint
	err := s.db.Model(&models.User{}).
		Where("team_lead_id = ? OR id = ?", teamLeadID, teamLeadID).
		Pluck("id", &ids).Error
	return ids, err
}

func validRole(role string) bool {
	switch role {
	case models.RoleAdmin, models.RoleTeamLead, models.RoleCC:
		return true
	}
	return false
}
