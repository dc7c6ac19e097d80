package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobType enumerates supported background work.
type JobType string

const (
	JobTypeExcelExport  JobType = "EXCEL_EXPORT"
	JobTypeEmailReport  JobType = "EMAIL_REPORT"
	JobTypeNotification JobType = "NOTIFICATION"
)

// IsValid reports whether the value is a known job type.
func (t JobType) IsValid() bool {
	switch t {
	case JobTypeExcelExport, JobTypeEmailReport, JobTypeNotification:
		return true
	}
	return false
}

// JobStatus enumerates the async job lifecycle.
type JobStatus string

const (
	JobStatusQueued          JobStatus = "QUEUED"
	JobStatusProcessing      JobStatus = "PROCESSING"
	JobStatusCompleted       JobStatus = "COMPLETED"
	JobStatusFailed          JobStatus = "FAILED"
	JobStatusFailedPermanent JobStatus = "FAILED_PERMANENT"
)

// IsValid reports whether the value is a known job status.
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusQueued, JobStatusProcessing, JobStatusCompleted,
		JobStatusFailed, JobStatusFailedPermanent:
		return true
	}
	return false
}

// AsyncJob is the durable record for a long-running background task. The
// record exists with status QUEUED before the matching queue message becomes
// visible, so a consumer that receives a message can always resolve it.
// Records are mutated only by the consumer and never deleted.
type AsyncJob struct {
	ID        string
	Type      JobType
	Payload   json.RawMessage
	Result    json.RawMessage
	Error     *string
	Status    JobStatus
	Attempts  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExcelExportPayload is the input for EXCEL_EXPORT jobs.
type ExcelExportPayload struct {
	AgentID string `json:"agent_id"`
	Period  string `json:"period"`
}

// EmailReportPayload is the input for EMAIL_REPORT jobs.
type EmailReportPayload struct {
	AgentID string `json:"agent_id"`
	Period  string `json:"period"`
	To      string `json:"to"`
}

// NotificationPayload is the input for NOTIFICATION jobs. A nil ReceiverID
// means broadcast: every supervisor is a logical recipient.
type NotificationPayload struct {
	Content    string  `json:"content"`
	ReceiverID *string `json:"receiver_id,omitempty"`
}

// ExcelExportResult is the outcome of a completed EXCEL_EXPORT job.
type ExcelExportResult struct {
	DownloadURL string `json:"download_url"`
	FileName    string `json:"file_name"`
	AgentID     string `json:"agent_id"`
	Period      string `json:"period"`
}

// EmailReportResult is the outcome of a completed EMAIL_REPORT job.
type EmailReportResult struct {
	SentTo  string `json:"sent_to"`
	AgentID string `json:"agent_id"`
	Period  string `json:"period"`
}

// NotificationResult is the outcome of a completed NOTIFICATION job.
type NotificationResult struct {
	MessageID string `json:"message_id"`
}

// DecodePayload unmarshals the job payload into the typed shape for its type.
func (j *AsyncJob) DecodePayload() (any, error) {
	switch j.Type {
	case JobTypeExcelExport:
		var p ExcelExportPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", j.Type, err)
		}
		return p, nil
	case JobTypeEmailReport:
		var p EmailReportPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", j.Type, err)
		}
		return p, nil
	case JobTypeNotification:
		var p NotificationPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", j.Type, err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown job type %q", j.Type)
}
