package jobqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobType(t *testing.T) {
	assert.Equal(t, "send_email", string(JobTypeSendEmail))
	assert.Equal(t, "delete_file", string(JobTypeDeleteFile))
}

func TestJob_IsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		job       *Job
		retryable bool
	}{
		{"Failed job with retries remaining", &Job{Status: JobStatusFailed, RetryCount: 1, MaxRetries: 3}, true},
		{"Failed job with no retries remaining", &Job{Status: JobStatusFailed, RetryCount: 3, MaxRetries: 3}, false},
		{"Completed job", &Job{Status: JobStatusCompleted, RetryCount: 1, MaxRetries: 3}, false},
		{"Pending job", &Job{Status: JobStatusPending, MaxRetries: 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.job.IsRetryable())
		})
	}
}

func TestJobStatusTransitions(t *testing.T) {
	job := &Job{Status: JobStatusPending, MaxRetries: 3}

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	require.NotNil(t, job.ProcessedAt)

	job.MarkAsFailed("smtp down")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, "smtp down", job.ErrorMsg)

	job.MarkAsRetrying()
	assert.Equal(t, JobStatusRetrying, job.Status)

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Empty(t, job.ErrorMsg)
	require.NotNil(t, job.CompletedAt)
}

func TestSendEmailPayloadMapping(t *testing.T) {
	in := SendEmailJobPayload{To: "a@x.com", Template: "WELCOME", Data: map[string]string{"username": "bob"}}

	out, err := SendEmailJobPayloadFromMap(in.ToMap())
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}

func TestDeleteFilePayloadMapping(t *testing.T) {
	out, err := DeleteFileJobPayloadFromMap(DeleteFileJobPayload{PublicID: "sprites/abc.png"}.ToMap())
	require.NoError(t, err)
	assert.Equal(t, "sprites/abc.png", out.PublicID)
}
