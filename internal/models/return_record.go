package models

import (
	"encoding/json"
	"time"
)

// ReturnReason is one (reason, count) pair from a return row. CCFault marks
// reasons attributed to the contact center (direct CC slots are plain return
// reasons; QC/CAT slots carrying the "CC:" prefix are CC fault).
type ReturnReason struct {
	Reason  string `json:"reason"`
	Count   int    `json:"count"`
	CCFault bool   `json:"cc_fault"`
}

// ReturnRecord is a returned-lead record with a reason/count breakdown.
// RowHash is content-derived from date+client+cid+abbreviation+reasons, so a
// reason edit produces a new logical row rather than updating the old one.
type ReturnRecord struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RowHash        string    `gorm:"uniqueIndex;size:64;not null" json:"row_hash"`
	ReturnDate     string    `gorm:"size:10;index" json:"return_date"` // YYYY-MM-DD
	ClientName     string    `gorm:"size:200" json:"client_name"`
	Block          string    `gorm:"size:100" json:"block"`
	ClientID       string    `gorm:"size:100" json:"client_id"`
	CCAbbreviation string    `gorm:"size:20;index" json:"cc_abbreviation"`
	ResolvedUserID *uint     `gorm:"index" json:"resolved_user_id"`
	ResolvedUser   *User     `gorm:"foreignKey:ResolvedUserID" json:"resolved_user,omitempty"`
	TeamLeadName   string    `gorm:"size:200" json:"team_lead_name"` // free text until resolution
	Reasons        string    `gorm:"type:text" json:"-"`             // JSON []ReturnReason
	InitialReturns int       `json:"initial_returns"`
	TotalLeads     int       `json:"total_leads"`
	FaultLeads     int       `json:"fault_leads"`
	RawRow         string    `gorm:"type:text" json:"-"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (ReturnRecord) TableName() string { return "return_records" }

// ReasonList decodes the stored reasons JSON.
func (r *ReturnRecord) ReasonList() []ReturnReason {
	var reasons []ReturnReason
	if r.Reasons == "" {
		return reasons
	}
	if err := json.Unmarshal([]byte(r.Reasons), &reasons); err != nil {
		return nil
	}
	return reasons
}

// SetReasons encodes the reason list into the stored JSON column.
func (r *ReturnRecord) SetReasons(reasons []ReturnReason) error {
	data, err := json.Marshal(reasons)
	if err != nil {
		return err
	}
	r.Reasons = string(data)
	return nil
}
