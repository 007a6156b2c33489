package services

import (
	"strings"

	"github.com/rkalenko/qcdash/internal/models"
	"gorm.io/gorm"
)

// LinkerService backfills resolved_user_id on imported rows by exact
// normalized match against the user table. Both operations only touch
// unresolved rows, so re-running them is idempotent and never re-links
// an already linked record.
type LinkerService struct {
	db *gorm.DB
}

func NewLinkerService(db *gorm.DB) *LinkerService {
	return &LinkerService{db: db}
}

// LinkIssuesForSource fills resolved_user_id on unresolved issues of one
// source where the stored responsible name matches an active user's full
// name, case-insensitively and trimmed. Runs as a single set-based UPDATE.
func (s *LinkerService) LinkIssuesForSource(sourceID uint) (int64, error) {
	result := s.db.Exec(`
		UPDATE issues SET resolved_user_id = (
			SELECT u.id FROM users u
			WHERE LOWER(TRIM(u.full_name)) = LOWER(TRIM(issues.responsible))
			  AND u.is_active = ? AND u.deleted_at IS NULL
			LIMIT 1
		)
		WHERE issues.source_id = ?
		  AND issues.resolved_user_id IS NULL
		  AND TRIM(issues.responsible) <> ''
		  AND EXISTS (
			SELECT 1 FROM users u WHERE LOWER(TRIM(u.full_name)) = LOWER(TRIM(issues.responsible))
			  AND u.is_active = ? AND u.deleted_at IS NULL
		  )`,
		true, sourceID, true)
	return result.RowsAffected, result.Error
}

// LinkReturns fills resolved_user_id on unresolved return records by CC
// abbreviation match.
func (s *LinkerService) LinkReturns() (int64, error) {
	result := s.db.Exec(`
		UPDATE return_records SET resolved_user_id = (
			SELECT u.id FROM users u
			WHERE UPPER(TRIM(u.abbreviation)) = UPPER(TRIM(return_records.cc_abbreviation))
			  AND u.is_active = ? AND u.deleted_at IS NULL
			LIMIT 1
		)
		WHERE return_records.resolved_user_id IS NULL
		  AND TRIM(return_records.cc_abbreviation) <> ''
		  AND EXISTS (
			SELECT 1 FROM users u WHERE UPPER(TRIM(u.abbreviation)) = UPPER(TRIM(return_records.cc_abbreviation))
			  AND u.is_active = ? AND u.deleted_at IS NULL
		  )`,
		true, true)
	return result.RowsAffected, result.Error
}

// AbbreviationMap builds the uppercase abbreviation -> user id map used by
// the returns engine to resolve agents in-run, once per sync.
func (s *LinkerService) AbbreviationMap() (map[string]uint, error) {
	var users []models.User
	if err := s.db.Where("is_active = ? AND abbreviation <> ''", true).Find(&users).Error; err != nil {
		return nil, err
	}

	byAbbr := make(map[string]uint, len(users))
	for _, user := range users {
		abbr := strings.ToUpper(strings.TrimSpace(user.Abbreviation))
		if abbr == "" {
			continue
		}
		if _, exists := byAbbr[abbr]; !exists {
			byAbbr[abbr] = user.ID
		}
	}
	return byAbbr, nil
}
