package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/rkalenko/qcdash/internal/models"
	"github.com/rkalenko/qcdash/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// ReportService builds and emails the daily quality report: yesterday's
// issue and return totals broken down per team. Scheduled via cron at the
// configured time, on workdays only.
type ReportService struct {
	db             *gorm.DB
	emailService   *EmailService
	holidayService *HolidayService
	configService  *SystemConfigService
	cronScheduler  *cron.Cron
	currentEntryID cron.EntryID
}

func NewReportService(db *gorm.DB, emailService *EmailService) *ReportService {
	return &ReportService{
		db:             db,
		emailService:   emailService,
		holidayService: NewHolidayService(),
		configService:  NewSystemConfigService(db),
	}
}

type teamReportRow struct {
	TeamLead    string
	IssueCount  int64
	ClientCount int64
	SevereCount int64
}

func (s *ReportService) StartScheduler() {
	s.cronScheduler = cron.New()
	s.updateSchedule()
	s.cronScheduler.Start()
	logger.Infof("[Report] Scheduler started")
}

// RefreshSchedule re-reads daily_report_time and reschedules the job.
func (s *ReportService) RefreshSchedule() {
	if s.cronScheduler == nil {
		return
	}
	s.updateSchedule()
}

func (s *ReportService) StopScheduler() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}

func (s *ReportService) updateSchedule() {
	if s.currentEntryID != 0 {
		s.cronScheduler.Remove(s.currentEntryID)
	}

	reportTime := s.configService.GetString("daily_report_time", "09:00")
	parts := strings.Split(reportTime, ":")
	hour := "9"
	minute := "0"
	if len(parts) == 2 {
		hour = parts[0]
		minute = parts[1]
	}

	cronExpr := fmt.Sprintf("%s %s * * *", minute, hour)

	entryID, err := s.cronScheduler.AddFunc(cronExpr, func() {
		s.GenerateAndSendReport()
	})
	if err != nil {
		logger.Errorf("[Report] Failed to add cron job: %v", err)
		return
	}

	s.currentEntryID = entryID
	logger.Infof("[Report] Scheduled at %s (cron: %s)", reportTime, cronExpr)
}

// GenerateAndSendReport builds yesterday's report and emails it to admins and
// team leads. Skipped when disabled or on non-workdays.
func (s *ReportService) GenerateAndSendReport() {
	if !s.configService.GetBool("daily_report_enabled", false) {
		return
	}

	country := s.configService.GetString("daily_report_country", "RU")
	if !s.holidayService.IsWorkday(country, time.Now()) {
		logger.Infof("[Report] Skipping report: not a workday in %s", country)
		return
	}

	day := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	body, err := s.buildReportBody(day)
	if err != nil {
		logger.Errorf("[Report] Failed to build report for %s: %v", day, err)
		return
	}

	recipients := s.recipients()
	if len(recipients) == 0 {
		logger.Warnf("[Report] No recipients configured, skipping")
		return
	}

	subject := fmt.Sprintf("[QCDash] Daily Quality Report for %s", day)
	if err := s.emailService.SendHTML(subject, body, recipients); err != nil {
		logger.Errorf("[Report] Failed to send report: %v", err)
		LogError("report", "daily_report", fmt.Sprintf("Failed to send daily report: %v", err), nil, "", "", nil)
		return
	}

	LogInfo("report", "daily_report", fmt.Sprintf("Daily report for %s sent to %d recipients", day, len(recipients)), nil, "", "", nil)
	logger.Infof("[Report] Daily report for %s sent to %d recipients", day, len(recipients))
}

// recipients returns the email addresses of active admins and team leads.
func (s *ReportService) recipients() []string {
	var users []models.User
	s.db.Where("is_active = ? AND email <> '' AND role IN ?", true, []string{models.RoleAdmin, models.RoleTeamLead}).
		Find(&users)

	emails := make([]string, 0, len(users))
	for _, user := range users {
		emails = append(emails, user.Email)
	}
	return emails
}

func (s *ReportService) buildReportBody(day string) (string, error) {
	var totalIssues int64
	if err := s.db.Model(&models.Issue{}).Where("issue_date = ?", day).Count(&totalIssues).Error; err != nil {
		return "", err
	}

	var teamRows []teamReportRow
	err := s.db.Raw(`
		SELECT COALESCE(tl.full_name, 'Unassigned') AS team_lead,
		       COUNT(i.id) AS issue_count,
		       SUM(CASE WHEN i.category = 'client' THEN 1 ELSE 0 END) AS client_count,
		       SUM(CASE WHEN i.severity_rate = 3 THEN 1 ELSE 0 END) AS severe_count
		FROM issues i
		LEFT JOIN users u ON u.id = i.resolved_user_id
		LEFT JOIN users tl ON tl.id = u.team_lead_id
		WHERE i.issue_date = ?
		GROUP BY COALESCE(tl.full_name, 'Unassigned')
		ORDER BY issue_count DESC`, day).Scan(&teamRows).Error
	if err != nil {
		return "", err
	}

	type returnTotals struct {
		Total int64
		Fault int64
	}
	var returns returnTotals
	err = s.db.Model(&models.ReturnRecord{}).
		Select("COALESCE(SUM(total_leads),0) AS total, COALESCE(SUM(fault_leads),0) AS fault").
		Where("return_date = ?", day).
		Scan(&returns).Error
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	fmt.Fprintf(&b, "<h2>Daily Quality Report: %s</h2>", day)
	fmt.Fprintf(&b, "<p>Total issues: <strong>%d</strong><br>", totalIssues)
	fmt.Fprintf(&b, "Returned leads: <strong>%d</strong> (CC fault: <strong>%d</strong>)</p>", returns.Total, returns.Fault)

	b.WriteString("<table border=\"1\" cellpadding=\"6\" cellspacing=\"0\">")
	b.WriteString("<tr><th>Team</th><th>Issues</th><th>Client-facing</th><th>Severity 3</th></tr>")
	for _, row := range teamRows {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td><td>%d</td><td>%d</td></tr>",
			row.TeamLead, row.IssueCount, row.ClientCount, row.SevereCount)
	}
	b.WriteString("</table>")
	b.WriteString("</body></html>")

	return b.String(), nil
}
