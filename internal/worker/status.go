package worker

// status.go — job status records
// One Redis string per job id, JSON encoded, with a TTL so finished jobs age
// out on their own. Handlers poll these to surface workflow progress.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	statusKeyPrefix = "jobs:status:"
	statusTTL       = 24 * time.Hour
)

const (
	JobStateQueued    = "queued"
	JobStateRunning   = "running"
	JobStateSucceeded = "succeeded"
	JobStateFailed    = "failed"
)

// JobStatus is the progress record of one workflow invocation.
type JobStatus struct {
	JobID      string     `json:"job_id"`
	Task       string     `json:"task"`
	State      string     `json:"state"`
	Summary    string     `json:"summary,omitempty"`
	Error      string     `json:"error,omitempty"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// StatusStore reads and writes job status records.
type StatusStore struct {
	rdb *redis.Client
}

func NewStatusStore(rdb *redis.Client) *StatusStore {
	return &StatusStore{rdb: rdb}
}

func (s *StatusStore) MarkQueued(ctx context.Context, jobID, task string) error {
	return s.write(ctx, &JobStatus{
		JobID:      jobID,
		Task:       task,
		State:      JobStateQueued,
		EnqueuedAt: time.Now().UTC(),
	})
}

func (s *StatusStore) MarkRunning(ctx context.Context, jobID string) error {
	st, err := s.Get(ctx, jobID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	st.State = JobStateRunning
	st.StartedAt = &now
	return s.write(ctx, st)
}

func (s *StatusStore) MarkSucceeded(ctx context.Context, jobID, summary string) error {
	return s.finish(ctx, jobID, JobStateSucceeded, summary, "")
}

func (s *StatusStore) MarkFailed(ctx context.Context, jobID, errMsg string) error {
	return s.finish(ctx, jobID, JobStateFailed, "", errMsg)
}

func (s *StatusStore) finish(ctx context.Context, jobID, state, summary, errMsg string) error {
	st, err := s.Get(ctx, jobID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	st.State = state
	st.Summary = summary
	st.Error = errMsg
	st.FinishedAt = &now
	return s.write(ctx, st)
}

// Get returns the status record, or redis.Nil when the id is unknown or has
// expired.
func (s *StatusStore) Get(ctx context.Context, jobID string) (*JobStatus, error) {
	raw, err := s.rdb.Get(ctx, statusKeyPrefix+jobID).Result()
	if err != nil {
		return nil, err
	}
	var st JobStatus
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *StatusStore) write(ctx context.Context, st *JobStatus) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, statusKeyPrefix+st.JobID, data, statusTTL).Err()
}
