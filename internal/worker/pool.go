package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueSync  = "jobs:sync"
	QueueEmail = "jobs:email"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb    *redis.Client
	status *StatusStore
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb, status: NewStatusStore(rdb)}
}

// Status exposes the job status store for read access by handlers.
func (d *Dispatcher) Status() *StatusStore { return d.status }

// EnqueueSync pushes a sync workflow job and returns its generated id. A
// status record is written up front so the caller can poll immediately.
func (d *Dispatcher) EnqueueSync(ctx context.Context, payload SyncJobPayload) (string, error) {
	payload.JobID = uuid.NewString()
	if err := d.status.MarkQueued(ctx, payload.JobID, payload.Task); err != nil {
		return "", err
	}
	if err := d.enqueue(ctx, QueueSync, "sync", payload); err != nil {
		return "", err
	}
	return payload.JobID, nil
}

// EnqueueEmail pushes an alert email job.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, "email", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, syncW *SyncWorker, emailW *EmailWorker) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, syncW, emailW)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, syncW *SyncWorker, emailW *EmailWorker) {
	queues := []string{QueueSync, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, result[0], result[1], syncW, emailW)
		}
	}
}

func processJob(ctx context.Context, queue, raw string, syncW *SyncWorker, emailW *EmailWorker) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	switch job.Type {
	case "sync":
		syncW.Process(ctx, job.Payload)
	case "email":
		emailW.Process(ctx, job.Payload)
	default:
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("unknown job type dropped")
	}
}
