package server

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dygy/scorepipe/internal/config"
	"github.com/dygy/scorepipe/internal/pipeline"
	"github.com/dygy/scorepipe/internal/workspace"
)

// JobStatus constants
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusComplete   JobStatus = "complete"
	StatusFailed     JobStatus = "failed"
)

// Job represents one uploaded sheet being converted
type Job struct {
	ID        string
	Status    JobStatus
	Filename  string
	InputPath string
	Workspace *workspace.Workspace
	Artifacts *pipeline.Artifacts
	Error     string
	CreatedAt time.Time

	mu sync.Mutex
}

// snapshot returns a consistent view of the mutable job fields
func (j *Job) snapshot() (JobStatus, *pipeline.Artifacts, string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status, j.Artifacts, j.Error
}

func (j *Job) setFailed(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusFailed
	j.Error = err.Error()
}

func (j *Job) setComplete(arts *pipeline.Artifacts) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusComplete
	j.Artifacts = arts
}

// RunFunc executes the conversion pipeline for one uploaded file. It is
// injectable so tests can avoid spawning real subprocesses.
type RunFunc func(ctx context.Context, inputPath, outputDir string, out io.Writer) (*pipeline.Artifacts, error)

// JobManager manages conversion jobs
type JobManager struct {
	jobs map[string]*Job
	mu   sync.RWMutex
	cfg  *config.Config
	run  RunFunc
}

// NewJobManager creates a new job manager
func NewJobManager(cfg *config.Config) *JobManager {
	if cfg == nil {
		cfg = config.Default()
	}
	m := &JobManager{
		jobs: make(map[string]*Job),
		cfg:  cfg,
	}
	m.run = m.runPipeline
	return m
}

// runPipeline is the default RunFunc, wired to the real tools
func (m *JobManager) runPipeline(ctx context.Context, inputPath, outputDir string, out io.Writer) (*pipeline.Artifacts, error) {
	orch := pipeline.NewOrchestrator(m.cfg, out, false)

	pcfg := pipeline.DefaultConfig()
	pcfg.InputPath = inputPath
	pcfg.OutputDir = outputDir
	pcfg.RecognizeTimeout = m.cfg.RecognizeTimeout()
	pcfg.RenderTimeout = m.cfg.RenderTimeout()
	pcfg.TranscodeTimeout = m.cfg.TranscodeTimeout()

	all, err := orch.Run(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	return &all[0], nil
}

// Create creates a new job with its own workspace
func (m *JobManager) Create() (*Job, error) {
	ws, err := workspace.Create()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	job := &Job{
		ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		Status:    StatusPending,
		Workspace: ws,
		CreatedAt: time.Now(),
	}

	m.jobs[job.ID] = job
	return job, nil
}

// Get retrieves a job by ID
func (m *JobManager) Get(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// Process runs the conversion pipeline for a job
func (m *JobManager) Process(job *Job) {
	defer func() {
		// Drop the job and its files once clients had time to download
		time.AfterFunc(30*time.Minute, func() {
			job.Workspace.Cleanup()
			m.mu.Lock()
			delete(m.jobs, job.ID)
			m.mu.Unlock()
		})
	}()

	job.mu.Lock()
	job.Status = StatusProcessing
	job.mu.Unlock()

	arts, err := m.run(context.Background(), job.InputPath, job.Workspace.OutputDir(), io.Discard)
	if err != nil {
		job.setFailed(err)
		return
	}

	job.setComplete(arts)
}
