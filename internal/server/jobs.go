package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kapu/competitor-intel-go/internal/constants"
	"github.com/kapu/competitor-intel-go/internal/domain"
	"github.com/kapu/competitor-intel-go/internal/progress"
	"go.uber.org/zap"
)

type JobState string

const (
	JobStatePending  JobState = "pending"
	JobStateRunning  JobState = "running"
	JobStateComplete JobState = "complete"
	JobStateFailed   JobState = "failed"
)

// Job is one report generation run. The sink buffers progress events so a
// client can attach to the event stream at any point during the run.
type Job struct {
	ID        string
	Sink      *progress.BufferSink
	CreatedAt time.Time

	mu       sync.RWMutex
	state    JobState
	document []byte
	err      error
}

func (j *Job) State() JobState {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// Result returns the final document or error; valid once the job left the
// running states.
func (j *Job) Result() ([]byte, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.document, j.err
}

type reportRunner interface {
	GenerateReport(ctx context.Context, req domain.ReportRequest, sink progress.Sink) ([]byte, error)
}

// JobManager owns job lifecycle: creation, background execution, lookup, and
// expiry of finished jobs.
type JobManager struct {
	reports   reportRunner
	logger    *zap.Logger
	retention time.Duration

	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewJobManager(reports reportRunner, logger *zap.Logger) *JobManager {
	return &JobManager{
		reports:   reports,
		logger:    logger,
		retention: constants.JobLimits.Retention,
		jobs:      make(map[string]*Job),
	}
}

// Start creates a job and launches the pipeline in the background. The
// request is assumed validated.
func (m *JobManager) Start(ctx context.Context, req domain.ReportRequest) *Job {
	job := &Job{
		ID:        uuid.NewString(),
		Sink:      progress.NewBufferSink(),
		CreatedAt: time.Now(),
		state:     JobStatePending,
	}

	m.mu.Lock()
	m.pruneLocked()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	go m.run(ctx, job, req)
	return job
}

func (m *JobManager) Get(id string) (*Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	return job, ok
}

func (m *JobManager) run(ctx context.Context, job *Job, req domain.ReportRequest) {
	job.mu.Lock()
	job.state = JobStateRunning
	job.mu.Unlock()

	document, err := m.reports.GenerateReport(ctx, req, job.Sink)

	job.mu.Lock()
	if err != nil {
		job.state = JobStateFailed
		job.err = err
	} else {
		job.state = JobStateComplete
		job.document = document
	}
	job.mu.Unlock()

	// Close after the terminal state is visible, so a subscriber that drains
	// to end-of-stream can immediately query the result.
	job.Sink.Close()

	if err != nil {
		m.logger.Error("Report job failed", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	m.logger.Info("Report job complete",
		zap.String("job_id", job.ID),
		zap.Int("bytes", len(document)),
	)
}

// pruneLocked drops finished jobs older than the retention window. Caller
// holds m.mu.
func (m *JobManager) pruneLocked() {
	cutoff := time.Now().Add(-m.retention)
	for id, job := range m.jobs {
		state := job.State()
		if job.CreatedAt.Before(cutoff) && (state == JobStateComplete || state == JobStateFailed) {
			delete(m.jobs, id)
		}
	}
}
