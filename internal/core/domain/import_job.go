package domain

import "time"

// ImportJob is the client-side record of a CSV import submitted to the gateway.
type ImportJob struct {
	JobID         string          `json:"job_id"`
	FileName      string          `json:"file_name"`
	CardType      string          `json:"card_type,omitempty"`
	DryRun        bool            `json:"dry_run"`
	Status        ImportJobStatus `json:"status"`
	ImportedCount int             `json:"imported_count"`
	TotalCount    int             `json:"total_count"`
	Errors        []string        `json:"errors,omitempty"`
	SubmittedAt   time.Time       `json:"submitted_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type ImportJobStatus string

const (
	ImportJobStarted    ImportJobStatus = "started"
	ImportJobProcessing ImportJobStatus = "processing"
	ImportJobCompleted  ImportJobStatus = "completed"
	ImportJobFailed     ImportJobStatus = "failed"
)

// Terminal reports whether the job will not change status again.
func (s ImportJobStatus) Terminal() bool {
	return s == ImportJobCompleted || s == ImportJobFailed
}
