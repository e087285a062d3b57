// Package models defines the persistent entities shared across the
// StockDelta services: filings, their extracted narrative sections, and the
// scored change fragments (deltas) computed between comparable filings.
package models

import "time"

// FormType identifies the SEC form of a filing.
type FormType string

const (
	Form10K   FormType = "10-K"
	Form10Q   FormType = "10-Q"
	Form8K    FormType = "8-K"
	Form4     FormType = "4"
	Form13FHR FormType = "13F-HR"
	Form13D   FormType = "13D"
	Form13G   FormType = "13G"
)

// Filing is one issuer's submission of a given form at a point in time.
// Rows are created by ingestion and are read-only afterwards; Ticker and
// CompanyName are display-only fields resolved at query time, never stored.
type Filing struct {
	ID            int64      `json:"id"`
	CIK           string     `json:"cik"` // zero-padded to 10 digits
	AccessionNo   string     `json:"accession_no"`
	Form          FormType   `json:"form"`
	FiledAt       time.Time  `json:"filed_at"`
	PeriodEnd     *time.Time `json:"period_end,omitempty"` // fiscal period covered, may be absent
	PrimaryDocURL string     `json:"primary_doc_url"`
	Source        string     `json:"source"`
	CreatedAt     time.Time  `json:"created_at"`

	Ticker      string `json:"ticker,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// FilingSection is an extracted narrative section snapshot. At most one row
// exists per (filing, section) pair; re-extraction replaces the whole set.
type FilingSection struct {
	ID        int64  `json:"id"`
	FilingID  int64  `json:"filing_id"`
	Section   string `json:"section"` // canonical tag, e.g. "Item1A"
	Text      string `json:"text"`
	TextHash  string `json:"text_hash"` // SHA-256 of normalized text
	CharCount int    `json:"char_count"`
}

// Operation is the kind of change a delta fragment represents.
type Operation string

const (
	OpInsert Operation = "INSERT"
	OpDelete Operation = "DELETE"
	// OpModify is reserved for paired-change detection. The diff engine does
	// not emit it; it exists so stored rows from future versions round-trip.
	OpModify Operation = "MODIFY"
)

// FilingDelta is one contiguous inserted or deleted span of text between a
// filing's section and the same section in its comparison baseline.
type FilingDelta struct {
	ID       int64     `json:"id"`
	FilingID int64     `json:"filing_id"`
	Section  string    `json:"section"`
	Op       Operation `json:"operation"`
	Snippet  string    `json:"snippet"`
	Score    float64   `json:"score"` // importance in [0,1], 3 decimals
}

// DeltaSummary is a read-side aggregate over a filing's deltas. It is
// derived, never stored.
type DeltaSummary struct {
	FilingID     int64         `json:"filing_id"`
	TotalChanges int           `json:"total_changes"`
	InsertCount  int           `json:"insert_count"`
	DeleteCount  int           `json:"delete_count"`
	ModifyCount  int           `json:"modify_count"`
	TopChanges   []FilingDelta `json:"top_changes"`
}

// SectionsForForm returns the canonical section identifiers extracted for a
// form type. The mapping is a closed contract with callers: 10-K and 10-Q
// carry Item1A (Risk Factors) and Item7 (MD&A); Item7A (Market Risk) is
// extracted for 10-K only. Other forms have no narrative sections.
func SectionsForForm(form FormType) []string {
	switch form {
	case Form10K:
		return []string{"Item1A", "Item7", "Item7A"}
	case Form10Q:
		return []string{"Item1A", "Item7"}
	default:
		return nil
	}
}

// ValidSection reports whether sectionID is extracted for the given form.
func ValidSection(form FormType, sectionID string) bool {
	for _, s := range SectionsForForm(form) {
		if s == sectionID {
			return true
		}
	}
	return false
}
