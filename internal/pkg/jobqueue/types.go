package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeSendEmail  JobType = "send_email"
	JobTypeDeleteFile JobType = "delete_file"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// SendEmailJobPayload carries a templated email to be rendered and sent by a worker
type SendEmailJobPayload struct {
	To       string            `json:"to"`
	Template string            `json:"template"`
	Data     map[string]string `json:"data"`
}

// ToMap converts the payload to a map for storage
func (p SendEmailJobPayload) ToMap() map[string]interface{} {
	data := make(map[string]interface{}, len(p.Data))
	for k, v := range p.Data {
		data[k] = v
	}
	return map[string]interface{}{
		"to":       p.To,
		"template": p.Template,
		"data":     data,
	}
}

// SendEmailJobPayloadFromMap creates a payload from a map
func SendEmailJobPayloadFromMap(data map[string]interface{}) (*SendEmailJobPayload, error) {
	var payload SendEmailJobPayload
	err := decodePayload(data, &payload)
	return &payload, err
}

// DeleteFileJobPayload retries the removal of a stored file
type DeleteFileJobPayload struct {
	PublicID string `json:"public_id"`
}

func (p DeleteFileJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"public_id": p.PublicID,
	}
}

func DeleteFileJobPayloadFromMap(data map[string]interface{}) (*DeleteFileJobPayload, error) {
	var payload DeleteFileJobPayload
	err := decodePayload(data, &payload)
	return &payload, err
}

func decodePayload(data map[string]interface{}, dst interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, dst)
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
