package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded  DocumentStatus = "uploaded"
	StatusIndexed   DocumentStatus = "indexed"
	StatusAnalyzing DocumentStatus = "analyzing"
	StatusAnalyzed  DocumentStatus = "analyzed"
	StatusFailed    DocumentStatus = "failed"
)

type ReportType string

const (
	ReportLaboratory ReportType = "laboratory"
	ReportRadiology  ReportType = "radiology"
	ReportUnknown    ReportType = "unknown"
)

// Document is the server-side record of one uploaded medical report.
type Document struct {
	ID          string         `json:"id"`
	OwnerID     string         `json:"owner_id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	ReportType  ReportType     `json:"report_type,omitempty"`
	ChunksCount int            `json:"chunks_count"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
