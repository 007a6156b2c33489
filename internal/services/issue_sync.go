package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rkalenko/qcdash/internal/models"
	"github.com/rkalenko/qcdash/internal/sheets"
	"github.com/rkalenko/qcdash/pkg/logger"
	"gorm.io/gorm"
)

const (
	lockNameIssueSync = "issue_sync"

	// Skip/error diagnostics keep a handful of samples, not every row.
	maxSampleEntries = 5
)

// SyncResult summarizes one sync run for the caller (admin trigger or
// scheduler). The same counts land in the persisted sync log.
type SyncResult struct {
	SourceID     uint   `json:"source_id"`
	SourceName   string `json:"source_name"`
	Status       string `json:"status"`
	RowsFetched  int    `json:"rows_fetched"`
	RowsInserted int    `json:"rows_inserted"`
	RowsUpdated  int    `json:"rows_updated"`
	RowsSkipped  int    `json:"rows_skipped"`
	UsersLinked  int64  `json:"users_linked"`
	Error        string `json:"error,omitempty"`
}

// IssueSyncService pulls issue rows from configured source spreadsheets,
// normalizes and upserts them, then links them to users. One run per source;
// rows already committed before a failure stay committed.
type IssueSyncService struct {
	db      *gorm.DB
	fetcher sheets.Fetcher
	locks   *SyncLockService
	linker  *LinkerService
}

func NewIssueSyncService(db *gorm.DB, fetcher sheets.Fetcher) *IssueSyncService {
	return &IssueSyncService{
		db:      db,
		fetcher: fetcher,
		locks:   NewSyncLockService(db),
		linker:  NewLinkerService(db),
	}
}

// issueRow is the typed record a raw spreadsheet row converts into right
// after column mapping. Everything downstream of the mapper is statically
// checked.
type issueRow struct {
	Date        string
	IssueType   string
	Responsible string
	ClientID    string
	Comment     string
	Reporter    string
	TaskID      string
	Severity    *int
	Category    string
}

// RunAll syncs every active source sequentially. One source failing does not
// abort its siblings; the result slice preserves source order.
func (s *IssueSyncService) RunAll(ctx context.Context) []*SyncResult {
	var sources []models.IssueSource
	if err := s.db.Where("is_active = ?", true).Order("id").Find(&sources).Error; err != nil {
		logger.Errorf("[IssueSync] Failed to load sources: %v", err)
		return nil
	}

	results := make([]*SyncResult, 0, len(sources))
	for i := range sources {
		result, err := s.runSource(ctx, &sources[i])
		if err != nil && result == nil {
			result = &SyncResult{
				SourceID:   sources[i].ID,
				SourceName: sources[i].Name,
				Status:     models.SyncStatusFailed,
				Error:      err.Error(),
			}
		}
		results = append(results, result)
	}
	return results
}

// RunSource syncs a single source by id.
func (s *IssueSyncService) RunSource(ctx context.Context, sourceID uint) (*SyncResult, error) {
	var source models.IssueSource
	if err := s.db.First(&source, sourceID).Error; err != nil {
		return nil, fmt.Errorf("source not found: %w", err)
	}
	return s.runSource(ctx, &source)
}

func (s *IssueSyncService) runSource(ctx context.Context, source *models.IssueSource) (*SyncResult, error) {
	lockKey := strconv.FormatUint(uint64(source.ID), 10)
	if err := s.locks.Acquire(lockNameIssueSync, lockKey); err != nil {
		return nil, err
	}
	defer s.locks.Release(lockNameIssueSync, lockKey)

	syncLog := models.SyncLog{
		SourceID:   source.ID,
		SourceName: source.Name,
		Status:     models.SyncStatusRunning,
		StartedAt:  time.Now(),
	}
	if err := s.db.Create(&syncLog).Error; err != nil {
		return nil, fmt.Errorf("failed to open sync log: %w", err)
	}

	result := &SyncResult{SourceID: source.ID, SourceName: source.Name}

	table, err := s.fetcher.FetchTable(ctx, source.SpreadsheetID, source.SheetName)
	if err != nil {
		s.finishFailed(&syncLog, result, fmt.Errorf("fetch failed: %w", err))
		return result, err
	}

	result.RowsFetched = len(table.Rows)
	var skipSamples, rowErrors []string

	for _, cells := range table.Rows {
		row := BuildRow(table.Headers, cells)

		record, skipReason := parseIssueRow(row)
		if skipReason != "" {
			result.RowsSkipped++
			if len(skipSamples) < maxSampleEntries {
				skipSamples = append(skipSamples, skipReason)
			}
			continue
		}

		inserted, err := s.upsertIssue(source.ID, row, record)
		if err != nil {
			if len(rowErrors) < maxSampleEntries {
				rowErrors = append(rowErrors, err.Error())
			}
			continue
		}
		if inserted {
			result.RowsInserted++
		} else {
			result.RowsUpdated++
		}
	}

	// Linking runs once per sync as a set-based operation, not per row.
	linked, err := s.linker.LinkIssuesForSource(source.ID)
	if err != nil {
		s.finishFailed(&syncLog, result, fmt.Errorf("user linking failed: %w", err))
		return result, err
	}
	result.UsersLinked = linked

	now := time.Now()
	if err := s.db.Model(source).Update("last_synced_at", now).Error; err != nil {
		s.finishFailed(&syncLog, result, fmt.Errorf("failed to update last sync time: %w", err))
		return result, err
	}

	result.Status = models.SyncStatusSuccess
	s.closeLog(&syncLog, result, skipSamples, rowErrors, "")

	LogInfo("sync", "issue_sync", fmt.Sprintf("Source %s synced: %d fetched, %d inserted, %d updated, %d skipped",
		source.Name, result.RowsFetched, result.RowsInserted, result.RowsUpdated, result.RowsSkipped), nil, "", "", result)
	logger.Infof("[IssueSync] Source %s complete: fetched=%d inserted=%d updated=%d skipped=%d linked=%d",
		source.Name, result.RowsFetched, result.RowsInserted, result.RowsUpdated, result.RowsSkipped, linked)

	return result, nil
}

// parseIssueRow converts a mapped row into a typed record, or reports the
// reason the row must be skipped.
func parseIssueRow(row Row) (*issueRow, string) {
	rawDate := PickField(row, issueDateKeys...)
	date, ok := NormalizeDate(rawDate)
	if !ok {
		return nil, fmt.Sprintf("missing or invalid date %q", rawDate)
	}

	issueType := PickField(row, issueTypeKeys...)
	if issueType == "" {
		return nil, "missing issue type"
	}

	record := &issueRow{
		Date:        date,
		IssueType:   issueType,
		Responsible: PickField(row, issueResponsibleKeys...),
		ClientID:    PickField(row, issueClientIDKeys...),
		Comment:     PickField(row, issueCommentKeys...),
		Reporter:    PickField(row, issueReporterKeys...),
		TaskID:      PickField(row, issueTaskIDKeys...),
		Severity:    parseSeverity(PickField(row, issueSeverityKeys...)),
		Category:    parseCategory(PickField(row, issueCategoryKeys...)),
	}
	return record, ""
}

func parseSeverity(raw string) *int {
	rate, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || rate < 1 || rate > 3 {
		return nil
	}
	return &rate
}

func parseCategory(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "client", "клиент", "клиентская":
		return "client"
	case "internal", "внутренняя", "внутренний":
		return "internal"
	}
	return ""
}

// upsertIssue inserts or updates the issue keyed by (source_id, row_hash).
// The dedup key stays immutable; all mutable fields are refreshed on update.
// resolved_user_id is left to the linking step.
func (s *IssueSyncService) upsertIssue(sourceID uint, row Row, record *issueRow) (bool, error) {
	hash := IssueRowHash(row)

	rawRow, err := json.Marshal(row)
	if err != nil {
		return false, fmt.Errorf("failed to serialize row: %w", err)
	}

	var existing models.Issue
	err = s.db.Where("source_id = ? AND row_hash = ?", sourceID, hash).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return false, err
		}
		issue := models.Issue{
			SourceID:     sourceID,
			RowHash:      hash,
			IssueDate:    record.Date,
			Responsible:  record.Responsible,
			ClientID:     record.ClientID,
			IssueType:    record.IssueType,
			Comment:      record.Comment,
			Reporter:     record.Reporter,
			TaskID:       record.TaskID,
			SeverityRate: record.Severity,
			Category:     record.Category,
			RawRow:       string(rawRow),
		}
		if err := s.db.Create(&issue).Error; err != nil {
			return false, fmt.Errorf("failed to insert issue %s: %w", hash, err)
		}
		return true, nil
	}

	updates := map[string]interface{}{
		"issue_date":    record.Date,
		"responsible":   record.Responsible,
		"client_id":     record.ClientID,
		"issue_type":    record.IssueType,
		"comment":       record.Comment,
		"reporter":      record.Reporter,
		"task_id":       record.TaskID,
		"severity_rate": record.Severity,
		"category":      record.Category,
		"raw_row":       string(rawRow),
	}
	if err := s.db.Model(&existing).Updates(updates).Error; err != nil {
		return false, fmt.Errorf("failed to update issue %s: %w", hash, err)
	}
	return false, nil
}

func (s *IssueSyncService) finishFailed(syncLog *models.SyncLog, result *SyncResult, err error) {
	result.Status = models.SyncStatusFailed
	result.Error = err.Error()
	s.closeLog(syncLog, result, nil, nil, err.Error())

	LogError("sync", "issue_sync", fmt.Sprintf("Source %s sync failed: %v", result.SourceName, err), nil, "", "", nil)
	logger.Errorf("[IssueSync] Source %s failed: %v", result.SourceName, err)
}

func (s *IssueSyncService) closeLog(syncLog *models.SyncLog, result *SyncResult, skipSamples, rowErrors []string, errMsg string) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":        result.Status,
		"rows_fetched":  result.RowsFetched,
		"rows_inserted": result.RowsInserted,
		"rows_updated":  result.RowsUpdated,
		"rows_skipped":  result.RowsSkipped,
		"error_message": errMsg,
		"finished_at":   now,
	}
	if len(skipSamples) > 0 {
		if data, err := json.Marshal(skipSamples); err == nil {
			updates["skip_samples"] = string(data)
		}
	}
	if len(rowErrors) > 0 {
		if data, err := json.Marshal(rowErrors); err == nil {
			updates["row_errors"] = string(data)
		}
	}
	if err := s.db.Model(syncLog).Updates(updates).Error; err != nil {
		logger.Errorf("[IssueSync] Failed to close sync log %d: %v", syncLog.ID, err)
	}
}
