package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rkalenko/qcdash/internal/config"
	"github.com/rkalenko/qcdash/internal/models"
	"github.com/rkalenko/qcdash/internal/sheets"
	"github.com/rkalenko/qcdash/pkg/logger"
	"gorm.io/gorm"
)

const (
	lockNameReturnsSync = "returns_sync"

	// Fixed slot counts in the returns sheet: 10 CC reason slots plus 10
	// QC/CAT slots that only count when the reason carries a CC: marker.
	ccReasonSlots = 10
	qcReasonSlots = 10
)

// ReturnsSyncService pulls the returned-leads feed from its dedicated
// spreadsheet. Same run shape as the issue engine with a differently shaped
// row: reason/count slot pairs and a fault attribution marker.
type ReturnsSyncService struct {
	db      *gorm.DB
	fetcher sheets.Fetcher
	cfg     *config.SyncConfig
	locks   *SyncLockService
	linker  *LinkerService
}

func NewReturnsSyncService(db *gorm.DB, fetcher sheets.Fetcher, cfg *config.SyncConfig) *ReturnsSyncService {
	return &ReturnsSyncService{
		db:      db,
		fetcher: fetcher,
		cfg:     cfg,
		locks:   NewSyncLockService(db),
		linker:  NewLinkerService(db),
	}
}

// returnRow is the typed record a returns sheet row converts into.
type returnRow struct {
	Date           string
	ClientName     string
	Block          string
	ClientID       string
	CCAbbreviation string
	TeamLeadName   string
	InitialReturns int
	Reasons        []models.ReturnReason
	TotalLeads     int
	FaultLeads     int
}

// Run executes one returns sync against the configured spreadsheet.
func (s *ReturnsSyncService) Run(ctx context.Context) (*SyncResult, error) {
	if s.cfg.ReturnsSpreadsheetID == "" {
		return nil, fmt.Errorf("returns spreadsheet is not configured")
	}

	if err := s.locks.Acquire(lockNameReturnsSync, "global"); err != nil {
		return nil, err
	}
	defer s.locks.Release(lockNameReturnsSync, "global")

	syncLog := models.ReturnsSyncLog{
		Status:    models.SyncStatusRunning,
		StartedAt: time.Now(),
	}
	if err := s.db.Create(&syncLog).Error; err != nil {
		return nil, fmt.Errorf("failed to open returns sync log: %w", err)
	}

	result := &SyncResult{SourceName: "returns"}

	table, err := s.fetcher.FetchTable(ctx, s.cfg.ReturnsSpreadsheetID, s.cfg.ReturnsSheetName)
	if err != nil {
		s.finishFailed(&syncLog, result, fmt.Errorf("fetch failed: %w", err))
		return result, err
	}

	// Abbreviation map is built once per run, not per row.
	byAbbr, err := s.linker.AbbreviationMap()
	if err != nil {
		s.finishFailed(&syncLog, result, fmt.Errorf("failed to load user abbreviations: %w", err))
		return result, err
	}

	result.RowsFetched = len(table.Rows)
	var skipSamples, rowErrors []string

	for _, cells := range table.Rows {
		row := BuildRow(table.Headers, cells)

		record, skipReason := parseReturnRow(row)
		if skipReason != "" {
			result.RowsSkipped++
			if len(skipSamples) < maxSampleEntries {
				skipSamples = append(skipSamples, skipReason)
			}
			continue
		}

		inserted, err := s.upsertReturn(row, record, byAbbr)
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

	result.Status = models.SyncStatusSuccess
	s.closeLog(&syncLog, result, skipSamples, rowErrors, "")

	LogInfo("sync", "returns_sync", fmt.Sprintf("Returns synced: %d fetched, %d inserted, %d updated, %d skipped",
		result.RowsFetched, result.RowsInserted, result.RowsUpdated, result.RowsSkipped), nil, "", "", result)
	logger.Infof("[ReturnsSync] Complete: fetched=%d inserted=%d updated=%d skipped=%d",
		result.RowsFetched, result.RowsInserted, result.RowsUpdated, result.RowsSkipped)

	return result, nil
}

// parseReturnRow converts a mapped row into a typed return record, or reports
// the reason it must be skipped.
func parseReturnRow(row Row) (*returnRow, string) {
	initial, err := strconv.Atoi(strings.TrimSpace(PickField(row, returnInitialKeys...)))
	if err != nil || initial <= 0 {
		return nil, "non-positive initial returns number"
	}

	rawDate := PickField(row, returnDateKeys...)
	date, ok := NormalizeDate(rawDate)
	if !ok {
		return nil, fmt.Sprintf("missing or invalid date %q", rawDate)
	}

	record := &returnRow{
		Date:           date,
		ClientName:     PickField(row, returnClientKeys...),
		Block:          PickField(row, returnBlockKeys...),
		ClientID:       PickField(row, returnClientIDKeys...),
		CCAbbreviation: strings.ToUpper(strings.TrimSpace(PickField(row, returnCCKeys...))),
		TeamLeadName:   PickField(row, returnTeamLeadKeys...),
		InitialReturns: initial,
	}
	record.Reasons = collectReasons(row)
	for _, reason := range record.Reasons {
		record.TotalLeads += reason.Count
		if reason.CCFault {
			record.FaultLeads += reason.Count
		}
	}
	return record, ""
}

// collectReasons walks the fixed reason/count slot pairs. Direct CC slots are
// always counted; QC/CAT slots are counted only when the reason text carries
// a "CC:" prefix marker, which also flags the lead as CC fault.
func collectReasons(row Row) []models.ReturnReason {
	var reasons []models.ReturnReason

	for i := 1; i <= ccReasonSlots; i++ {
		reason, count := reasonSlot(row, i, "reason_%d", "причина_%d")
		if reason == "" || count <= 0 {
			continue
		}
		reasons = append(reasons, models.ReturnReason{
			Reason:  reason,
			Count:   count,
			CCFault: hasCCMarker(reason),
		})
	}

	for i := 1; i <= qcReasonSlots; i++ {
		reason, count := reasonSlot(row, i, "qc_reason_%d", "окк_причина_%d")
		if reason == "" || count <= 0 {
			continue
		}
		if !hasCCMarker(reason) {
			continue
		}
		reasons = append(reasons, models.ReturnReason{
			Reason:  reason,
			Count:   count,
			CCFault: true,
		})
	}

	return reasons
}

func reasonSlot(row Row, slot int, reasonPatterns ...string) (string, int) {
	var reason string
	for _, pattern := range reasonPatterns {
		if v := row[fmt.Sprintf(pattern, slot)]; v != "" {
			reason = v
			break
		}
	}
	if reason == "" {
		return "", 0
	}

	// "Кол-во" headers normalize with or without the underscore depending on
	// whether the sheet uses a hyphen or a space.
	countPatterns := []string{"count_%d", "кол_во_%d", "колво_%d"}
	if strings.HasPrefix(reasonPatterns[0], "qc_") {
		countPatterns = []string{"qc_count_%d", "окк_кол_во_%d", "окк_колво_%d"}
	}
	for _, pattern := range countPatterns {
		if v := row[fmt.Sprintf(pattern, slot)]; v != "" {
			if count, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return reason, count
			}
		}
	}
	return reason, 0
}

// hasCCMarker reports whether a reason text is explicitly attributed to the
// contact center.
func hasCCMarker(reason string) bool {
	upper := strings.ToUpper(strings.TrimSpace(reason))
	return strings.HasPrefix(upper, "CC:") || strings.HasPrefix(upper, "КЦ:")
}

// upsertReturn inserts or updates a return record keyed by its content hash.
// A reason/count edit changes the hash and therefore lands as a new logical
// row; this mirrors the feed's reconciliation semantics.
func (s *ReturnsSyncService) upsertReturn(row Row, record *returnRow, byAbbr map[string]uint) (bool, error) {
	hash := ReturnRowHash(record.Date, record.ClientName, record.ClientID, record.CCAbbreviation, record.Reasons)

	rawRow, err := json.Marshal(row)
	if err != nil {
		return false, fmt.Errorf("failed to serialize row: %w", err)
	}

	var resolvedUser *uint
	if id, ok := byAbbr[record.CCAbbreviation]; ok {
		resolvedUser = &id
	}

	var existing models.ReturnRecord
	err = s.db.Where("row_hash = ?", hash).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return false, err
		}
		ret := models.ReturnRecord{
			RowHash:        hash,
			ReturnDate:     record.Date,
			ClientName:     record.ClientName,
			Block:          record.Block,
			ClientID:       record.ClientID,
			CCAbbreviation: record.CCAbbreviation,
			ResolvedUserID: resolvedUser,
			TeamLeadName:   record.TeamLeadName,
			InitialReturns: record.InitialReturns,
			TotalLeads:     record.TotalLeads,
			FaultLeads:     record.FaultLeads,
			RawRow:         string(rawRow),
		}
		if err := ret.SetReasons(record.Reasons); err != nil {
			return false, fmt.Errorf("failed to serialize reasons: %w", err)
		}
		if err := s.db.Create(&ret).Error; err != nil {
			return false, fmt.Errorf("failed to insert return %s: %w", hash, err)
		}
		return true, nil
	}

	updates := map[string]interface{}{
		"block":           record.Block,
		"team_lead_name":  record.TeamLeadName,
		"initial_returns": record.InitialReturns,
		"raw_row":         string(rawRow),
	}
	if existing.ResolvedUserID == nil && resolvedUser != nil {
		updates["resolved_user_id"] = *resolvedUser
	}
	if err := s.db.Model(&existing).Updates(updates).Error; err != nil {
		return false, fmt.Errorf("failed to update return %s: %w", hash, err)
	}
	return false, nil
}

func (s *ReturnsSyncService) finishFailed(syncLog *models.ReturnsSyncLog, result *SyncResult, err error) {
	result.Status = models.SyncStatusFailed
	result.Error = err.Error()
	s.closeLog(syncLog, result, nil, nil, err.Error())

	LogError("sync", "returns_sync", fmt.Sprintf("Returns sync failed: %v", err), nil, "", "", nil)
	logger.Errorf("[ReturnsSync] Failed: %v", err)
}

func (s *ReturnsSyncService) closeLog(syncLog *models.ReturnsSyncLog, result *SyncResult, skipSamples, rowErrors []string, errMsg string) {
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
		logger.Errorf("[ReturnsSync] Failed to close sync log %d: %v", syncLog.ID, err)
	}
}
