package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueDocuments holds PDF rendering work so slow renders never starve scans.
	QueueDocuments = "documents"
	// TaskComplianceScan scores every entity for a period.
	TaskComplianceScan = "compliance:scan"
	// TaskFilingDocument renders a filing document to PDF.
	TaskFilingDocument = "filing:document"
)

// ComplianceScanPayload selects the period to scan. A zero TaxYear means the
// month before the job runs.
type ComplianceScanPayload struct {
	TaxYear int `json:"tax_year,omitempty"`
	Month   int `json:"month,omitempty"`
}

// FilingDocumentPayload describes a document render request.
type FilingDocumentPayload struct {
	EntityID    string `json:"entity_id"`
	Document    string `json:"document"`
	TaxYear     int    `json:"tax_year"`
	Month       *int   `json:"month,omitempty"`
	RequestedAt string `json:"requested_at"`
}

// NewComplianceScanTask constructs an Asynq task.
func NewComplianceScanTask(payload ComplianceScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskComplianceScan, data, asynq.MaxRetry(3), asynq.Timeout(30*time.Minute)), nil
}

// NewFilingDocumentTask constructs an Asynq task.
func NewFilingDocumentTask(payload FilingDocumentPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFilingDocument, data, asynq.MaxRetry(5), asynq.Queue(QueueDocuments)), nil
}
