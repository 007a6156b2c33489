package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rkalenko/qcdash/internal/config"
)

// Table is one spreadsheet snapshot: a header row plus data rows. Values are
// returned as formatted strings by the provider; interpretation is up to the
// caller.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Fetcher fetches one spreadsheet tab. The sync engines depend on this
// interface so tests can inject fakes instead of hitting the provider.
type Fetcher interface {
	FetchTable(ctx context.Context, spreadsheetID, sheetName string) (*Table, error)
}

// Client talks to the Google Sheets values API with an API key.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg *config.SheetsConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type valuesResponse struct {
	Range  string     `json:"range"`
	Values [][]string `json:"values"`
}

// FetchTable downloads the full value range of one sheet tab. The first
// non-empty row is treated as the header row.
func (c *Client) FetchTable(ctx context.Context, spreadsheetID, sheetName string) (*Table, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is empty")
	}
	rangeRef := sheetName
	if rangeRef == "" {
		rangeRef = "A1:ZZ"
	}

	apiURL := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?key=%s",
		c.baseURL, url.PathEscape(spreadsheetID), url.PathEscape(rangeRef), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("sheets API returned %d: %s", resp.StatusCode, string(body))
	}

	var values valuesResponse
	if err := json.NewDecoder(resp.Body).Decode(&values); err != nil {
		return nil, fmt.Errorf("failed to decode sheets response: %w", err)
	}

	table := &Table{}
	for _, row := range values.Values {
		if table.Headers == nil {
			if isEmptyRow(row) {
				continue
			}
			table.Headers = row
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
