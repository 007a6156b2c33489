package services

import (
	"strings"
	"unicode"
)

// Row is one spreadsheet row keyed by normalized header name. The schema is
// unknown until headers arrive, so the ingestion boundary stays a string map;
// rows are converted to typed records right after column mapping.
type Row map[string]string

// Synonym sets for issue columns. Feeding spreadsheets mix English and
// Russian headers, so every logical field carries both spellings.
var (
	issueDateKeys        = []string{"date", "issue_date", "дата"}
	issueTypeKeys        = []string{"type", "issue_type", "тип", "тип_ошибки"}
	issueResponsibleKeys = []string{"responsible", "name", "ответственный", "сотрудник"}
	issueClientIDKeys    = []string{"cid", "client_id", "id_клиента"}
	issueCommentKeys     = []string{"comment", "description", "комментарий"}
	issueReporterKeys    = []string{"reporter", "author", "кто_внес"}
	issueTaskIDKeys      = []string{"task", "task_id", "задача"}
	issueSeverityKeys    = []string{"rate", "severity", "оценка"}
	issueCategoryKeys    = []string{"category", "категория"}
)

// Synonym sets for return columns.
var (
	returnDateKeys     = []string{"date", "return_date", "дата"}
	returnClientKeys   = []string{"client", "client_name", "клиент"}
	returnBlockKeys    = []string{"block", "блок"}
	returnClientIDKeys = []string{"cid", "client_id", "id_клиента"}
	returnCCKeys       = []string{"cc", "cc_abbr", "кц"}
	returnTeamLeadKeys = []string{"tl", "team_lead", "тл", "тимлид"}
	returnInitialKeys  = []string{"returns", "initial_returns", "возвраты", "кол_во_возвратов", "колво_возвратов"}
)

// NormalizeHeader canonicalizes a spreadsheet header: lowercase, trimmed,
// whitespace collapsed to single underscores, everything that is not a letter,
// digit or underscore stripped.
func NormalizeHeader(header string) string {
	header = strings.ToLower(strings.TrimSpace(header))

	var b strings.Builder
	lastUnderscore := false
	for _, r := range header {
		switch {
		case unicode.IsSpace(r):
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		case r == '_':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// BuildRow zips a header row and a data row into a normalized Row. Cells
// beyond the header width are dropped; missing trailing cells become "".
func BuildRow(headers []string, cells []string) Row {
	row := make(Row, len(headers))
	for i, header := range headers {
		key := NormalizeHeader(header)
		if key == "" {
			continue
		}
		value := ""
		if i < len(cells) {
			value = strings.TrimSpace(cells[i])
		}
		// First header with a given normalized name wins.
		if _, exists := row[key]; !exists {
			row[key] = value
		}
	}
	return row
}

// PickField returns the first non-empty value among the synonym keys, or ""
// when no key matches. Exact key match only; headers are already normalized.
func PickField(row Row, keys ...string) string {
	for _, key := range keys {
		if value, ok := row[key]; ok && value != "" {
			return value
		}
	}
	return ""
}
