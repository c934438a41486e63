package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ExportKind enumerates asynchronous bulk exports.
type ExportKind string

const (
	ExportKindBulkPDF  ExportKind = "bulk_pdf"
	ExportKindBulkHTML ExportKind = "bulk_html"
)

// DocumentFormat is the per-student report format of a bulk export.
type DocumentFormat string

const (
	FormatPDF  DocumentFormat = "pdf"
	FormatHTML DocumentFormat = "html"
)

// Kind maps a document format to its bulk export kind.
func (f DocumentFormat) Kind() ExportKind {
	if f == FormatHTML {
		return ExportKindBulkHTML
	}
	return ExportKindBulkPDF
}

// Format is the inverse of DocumentFormat.Kind.
func (k ExportKind) Format() DocumentFormat {
	if k == ExportKindBulkHTML {
		return FormatHTML
	}
	return FormatPDF
}

// ExportStatus captures background job lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
	ExportStatusCancelled  ExportStatus = "CANCELLED"
)

// Terminal reports whether the job can no longer change.
func (s ExportStatus) Terminal() bool {
	return s == ExportStatusFinished || s == ExportStatusFailed || s == ExportStatusCancelled
}

// ExportJob is a persisted bulk export of per-student report cards.
type ExportJob struct {
	ID           string          `db:"id" json:"id"`
	Kind         ExportKind      `db:"kind" json:"kind"`
	Params       ExportJobParams `db:"params" json:"params"`
	Status       ExportStatus    `db:"status" json:"status"`
	Current      int             `db:"current" json:"current"`
	Total        int             `db:"total" json:"total"`
	SuccessCount int             `db:"success_count" json:"success_count"`
	ErrorCount   int             `db:"error_count" json:"error_count"`
	ResultURL    *string         `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
}

// ExportJobParams stores the cohort filters as JSONB.
type ExportJobParams struct {
	Filters ExportFilters `json:"filters"`
}

// Value marshals params to JSON for persistence.
func (p ExportJobParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal export job params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ExportJobParams) Scan(value interface{}) error {
	if value == nil {
		*p = ExportJobParams{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ExportJobParams", value)
	}
	if len(data) == 0 {
		*p = ExportJobParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal export job params: %w", err)
	}
	return nil
}
