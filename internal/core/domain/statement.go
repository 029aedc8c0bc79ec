package domain

import "time"

type StatementStatus string

const (
	StatusUploaded   StatementStatus = "uploaded"
	StatusProcessing StatementStatus = "processing"
	StatusReady      StatementStatus = "ready"
	StatusFailed     StatementStatus = "failed"
)

// Statement is an uploaded trial balance processed by the worker.
type Statement struct {
	ID          string          `json:"id"`
	Filename    string          `json:"filename"`
	MimeType    string          `json:"mime_type"`
	StoragePath string          `json:"storage_path"`
	Params      AnalysisParams  `json:"params"`
	Status      StatementStatus `json:"status"`
	Error       string          `json:"error,omitempty"`
	Analysis    *Analysis       `json:"analysis,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
