package services

import (
	"strconv"

	"github.com/rkalenko/qcdash/internal/models"
	"gorm.io/gorm"
)

// SystemConfigService provides typed access to the system_configs table.
type SystemConfigService struct {
	db *gorm.DB
}

func NewSystemConfigService(db *gorm.DB) *SystemConfigService {
	return &SystemConfigService{db: db}
}

func (s *SystemConfigService) GetString(key, fallback string) string {
	var cfg models.SystemConfig
	if err := s.db.Where("key = ?", key).First(&cfg).Error; err != nil {
		return fallback
	}
	if cfg.Value == "" {
		return fallback
	}
	return cfg.Value
}

func (s *SystemConfigService) GetInt(key string, fallback int) int {
	raw := s.GetString(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func (s *SystemConfigService) GetBool(key string, fallback bool) bool {
	raw := s.GetString(key, "")
	if raw == "" {
		return fallback
	}
	return raw == "true" || raw == "1"
}

// Set upserts one config key.
func (s *SystemConfigService) Set(key, value string) error {
	var cfg models.SystemConfig
	err := s.db.Where("key = ?", key).First(&cfg).Error
	if err == gorm.ErrRecordNotFound {
		return s.db.Create(&models.SystemConfig{Key: key, Value: value}).Error
	}
	if err != nil {
		return err
	}
	return s.db.Model(&cfg).Update("value", value).Error
}

// ListGroup returns all configs in a group.
func (s *SystemConfigService) ListGroup(group string) ([]models.SystemConfig, error) {
	var configs []models.SystemConfig
	err := s.db.Where(&models.SystemConfig{Group: group}).Order("key").Find(&configs).Error
	return configs, err
}

// ListAll returns every config row.
func (s *SystemConfigService) ListAll() ([]models.SystemConfig, error) {
	var configs []models.SystemConfig
	err := s.db.Order("key").Find(&configs).Error
	return configs, err
}
