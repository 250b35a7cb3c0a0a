package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	JobKeyPrefix     = "jobs:data:"
	JobQueueKey      = "jobs:pending"
	JobProcessingKey = "jobs:processing"
	JobStatsKey      = "jobs:stats"

	DefaultMaxRetries = 3
	JobTTL            = 24 * time.Hour

	stuckAfter    = 10 * time.Minute
	sweepInterval = time.Minute
	popTimeout    = time.Second
)

// HandlerFunc processes one job. A returned error marks the job failed and schedules a retry.
type HandlerFunc func(ctx context.Context, job *Job) error

// Queue is a Redis list backed work queue. Jobs move from the pending list to the
// processing list while a worker owns them.
type Queue struct {
	client  *redis.Client
	workers int
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	handlersMu sync.RWMutex
	handlers   map[JobType]HandlerFunc

	retryDelay func(attempt int) time.Duration
}

// NewQueue creates a queue with the given number of workers (3 when not positive).
func NewQueue(client *redis.Client, workers int) *Queue {
	if workers <= 0 {
		workers = 3
	}

	return &Queue{
		client:   client,
		workers:  workers,
		stopCh:   make(chan struct{}),
		handlers: make(map[JobType]HandlerFunc),
		retryDelay: func(attempt int) time.Duration {
			return time.Duration(attempt) * time.Minute
		},
	}
}

// RegisterHandler binds a handler to a job type, replacing any previous one.
func (q *Queue) RegisterHandler(jobType JobType, handler HandlerFunc) {
	q.handlersMu.Lock()
	defer q.handlersMu.Unlock()
	q.handlers[jobType] = handler
}

func (q *Queue) handler(jobType JobType) (HandlerFunc, bool) {
	q.handlersMu.RLock()
	defer q.handlersMu.RUnlock()
	h, ok := q.handlers[jobType]
	return h, ok
}

func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}
	q.running = true
	log.Infof("[JobQueue] Starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	q.wg.Add(1)
	go q.sweepStuck()
}

// Stop signals all workers and waits for in-flight jobs to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}

	log.Info("[JobQueue] Stopping workers...")
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Info("[JobQueue] All workers stopped")
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			log.Debugf("[JobQueue] Worker %d stopping", id)
			return
		default:
		}

		job, err := q.dequeueJob(ctx)
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Errorf("[JobQueue] Worker %d: dequeue failed: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}

		log.Debugf("[JobQueue] Worker %d picked job %s (%s)", id, job.ID, job.Type)
		q.processJob(ctx, job)
	}
}

// sweepStuck requeues jobs left in the processing list by a crashed worker.
func (q *Queue) sweepStuck() {
	defer q.wg.Done()
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.recoverStuck(ctx, time.Now())
		}
	}
}

func (q *Queue) recoverStuck(ctx context.Context, now time.Time) {
	ids, err := q.client.LRange(ctx, JobProcessingKey, 0, -1).Result()
	if err != nil {
		log.Errorf("[JobQueue] Sweeper could not list processing jobs: %v", err)
		return
	}

	for _, id := range ids {
		job, err := q.GetJob(ctx, id)
		if err != nil || job.Status != JobStatusProcessing {
			_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
			continue
		}

		started := job.UpdatedAt
		if job.ProcessedAt != nil {
			started = *job.ProcessedAt
		}
		if now.Sub(started) < stuckAfter {
			continue
		}

		log.Warnf("[JobQueue] Requeueing stuck job %s (%s)", job.ID, job.Type)
		job.Status = JobStatusPending
		job.ErrorMsg = "recovered by sweeper"
		job.UpdatedAt = now
		q.updateJob(ctx, job)
		_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
		_ = q.client.RPush(ctx, JobQueueKey, id).Err()
	}
}

// EnqueueJob stores the job and pushes it onto the pending list.
func (q *Queue) EnqueueJob(ctx context.Context, jobType JobType, payload map[string]interface{}) (*Job, error) {
	now := time.Now()
	job := &Job{
		ID:         uuid.New().String(),
		Type:       jobType,
		Status:     JobStatusPending,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
		MaxRetries: DefaultMaxRetries,
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, JobKeyPrefix+job.ID, jobData, JobTTL)
	pipe.LPush(ctx, JobQueueKey, job.ID)
	pipe.HIncrBy(ctx, JobStatsKey, string(JobStatusPending), 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	log.Debugf("[JobQueue] Enqueued job %s (%s)", job.ID, job.Type)
	return job, nil
}

func (q *Queue) dequeueJob(ctx context.Context) (*Job, error) {
	jobID, err := q.client.BLMove(ctx, JobQueueKey, JobProcessingKey, "RIGHT", "LEFT", popTimeout).Result()
	if err != nil {
		return nil, err
	}

	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		q.removeFromProcessing(ctx, jobID)
		return nil, fmt.Errorf("job %s unreadable: %w", jobID, err)
	}
	return job, nil
}

func (q *Queue) processJob(ctx context.Context, job *Job) {
	job.MarkAsProcessing()
	q.updateJob(ctx, job)

	var err error
	if h, ok := q.handler(job.Type); ok {
		err = h(ctx, job)
	} else {
		err = fmt.Errorf("unknown job type: %s", job.Type)
	}

	defer q.removeFromProcessing(ctx, job.ID)

	if err == nil {
		job.MarkAsCompleted()
		q.updateJobStats(ctx, JobStatusCompleted, 1)
		if derr := q.client.Del(ctx, JobKeyPrefix+job.ID).Err(); derr != nil {
			log.Errorf("[JobQueue] Failed to drop completed job %s: %v", job.ID, derr)
		}
		return
	}

	log.Errorf("[JobQueue] Job %s (%s) failed: %v", job.ID, job.Type, err)
	job.MarkAsFailed(err.Error())
	if !job.IsRetryable() {
		log.Errorf("[JobQueue] Job %s permanently failed after %d attempts", job.ID, job.RetryCount)
		q.updateJobStats(ctx, JobStatusFailed, 1)
		q.updateJob(ctx, job)
		return
	}

	job.MarkAsRetrying()
	q.updateJob(ctx, job)
	delay := q.retryDelay(job.RetryCount)
	log.Infof("[JobQueue] Retrying job %s in %s (attempt %d/%d)", job.ID, delay, job.RetryCount, job.MaxRetries)
	time.AfterFunc(delay, func() {
		if perr := q.client.LPush(context.Background(), JobQueueKey, job.ID).Err(); perr != nil {
			log.Errorf("[JobQueue] Failed to requeue job %s: %v", job.ID, perr)
		}
	})
}

func (q *Queue) updateJob(ctx context.Context, job *Job) {
	jobData, err := json.Marshal(job)
	if err != nil {
		log.Errorf("[JobQueue] Failed to marshal job %s: %v", job.ID, err)
		return
	}
	if err := q.client.Set(ctx, JobKeyPrefix+job.ID, jobData, JobTTL).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to update job %s: %v", job.ID, err)
	}
}

func (q *Queue) removeFromProcessing(ctx context.Context, jobID string) {
	if err := q.client.LRem(ctx, JobProcessingKey, 1, jobID).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to remove job %s from processing list: %v", jobID, err)
	}
}

func (q *Queue) updateJobStats(ctx context.Context, status JobStatus, delta int64) {
	if err := q.client.HIncrBy(ctx, JobStatsKey, string(status), delta).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to update job stats: %v", err)
	}
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	jobData, err := q.client.Get(ctx, JobKeyPrefix+jobID).Bytes()
	if err != nil {
		return nil, err
	}

	var job Job
	if err := json.Unmarshal(jobData, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// GetJobStats returns counters per job status
func (q *Queue) GetJobStats(ctx context.Context) (map[JobStatus]int64, error) {
	stats, err := q.client.HGetAll(ctx, JobStatsKey).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[JobStatus]int64, len(stats))
	for status, count := range stats {
		if n, err := json.Number(count).Int64(); err == nil {
			result[JobStatus(status)] = n
		}
	}
	return result, nil
}

// GetQueueSize returns the number of pending jobs
func (q *Queue) GetQueueSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, JobQueueKey).Result()
}
