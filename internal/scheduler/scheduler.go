package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bazuu/investorconnect/internal/db"
)

// RunFunc performs one run of a job and returns a short summary.
type RunFunc func(ctx context.Context) (string, error)

// Job is a named maintenance job on a cron schedule.
type Job struct {
	Name     string
	Schedule string
	Run      RunFunc
}

// JobInfo describes a registered job.
type JobInfo struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	NextRun  time.Time `json:"next_run"`
	Running  bool      `json:"running"`
}

// Scheduler runs maintenance jobs.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop() error
	RunNow(ctx context.Context, name string) (*db.JobRunLog, error)
	Jobs() []JobInfo
}

type entry struct {
	Job
	schedule cron.Schedule
	next     time.Time
	running  bool
}

// JobScheduler implements Scheduler using a polling loop.
type JobScheduler struct {
	store        db.RunLogStore
	pollInterval time.Duration
	logger       *slog.Logger
	now          func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	sem     chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NewJobScheduler validates jobs and creates a JobScheduler. At most
// workers jobs run at the same time.
func NewJobScheduler(store db.RunLogStore, jobs []Job, pollInterval time.Duration, workers int, logger *slog.Logger) (*JobScheduler, error) {
	if workers < 1 {
		workers = 1
	}
	s := &JobScheduler{
		store:        store,
		pollInterval: pollInterval,
		logger:       logger,
		now:          time.Now,
		entries:      make(map[string]*entry, len(jobs)),
		sem:          make(chan struct{}, workers),
	}
	for _, j := range jobs {
		if _, ok := s.entries[j.Name]; ok {
			return nil, fmt.Errorf("duplicate job %q", j.Name)
		}
		sched, err := cronParser.Parse(j.Schedule)
		if err != nil {
			return nil, fmt.Errorf("parsing schedule %q for job %s: %w", j.Schedule, j.Name, err)
		}
		s.entries[j.Name] = &entry{Job: j, schedule: sched}
	}
	return s, nil
}

// Start computes the first run of every job and launches the polling loop
// in a background goroutine.
func (s *JobScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	now := s.now()
	for _, e := range s.entries {
		e.next = e.schedule.Next(now)
	}
	s.mu.Unlock()

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.pollLoop(ctx)
	s.logger.Info("scheduler started", "jobs", len(s.entries), "poll_interval", s.pollInterval)
	return nil
}

// Stop cancels the polling loop and waits for running jobs to finish.
func (s *JobScheduler) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	return nil
}

// Jobs lists the registered jobs by name.
func (s *JobScheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobInfo, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, JobInfo{Name: e.Name, Schedule: e.Job.Schedule, NextRun: e.next, Running: e.running})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RunNow runs a job immediately and waits for it, outside the worker
// bound.
func (s *JobScheduler) RunNow(ctx context.Context, name string) (*db.JobRunLog, error) {
	s.mu.Lock()
	e, ok := s.entries[name]
	if !ok {
		s.mu.Unlock()
		return nil, db.Errorf(db.ErrNotFound, "Unknown job %q.", name)
	}
	if e.running {
		s.mu.Unlock()
		return nil, db.Errorf(db.ErrConflict, "Job %q is already running.", name)
	}
	e.running = true
	s.mu.Unlock()

	defer s.finish(e)
	return s.execute(ctx, e)
}

func (s *JobScheduler) pollLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.processDue(ctx)
		}
	}
}

// processDue launches every due job that has a free worker. Jobs without
// a free worker stay due until the next poll.
func (s *JobScheduler) processDue(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, e := range s.entries {
		if e.running || e.next.After(now) {
			continue
		}
		select {
		case s.sem <- struct{}{}:
		default:
			s.logger.Debug("no free worker", "job", e.Name)
			continue
		}
		e.running = true
		e.next = e.schedule.Next(now)
		s.wg.Add(1)
		go func(e *entry) {
			defer s.wg.Done()
			defer func() { <-s.sem }()
			defer s.finish(e)
			if _, err := s.execute(ctx, e); err != nil {
				s.logger.Error("job run", "job", e.Name, "error", err)
			}
		}(e)
	}
}

func (s *JobScheduler) finish(e *entry) {
	s.mu.Lock()
	e.running = false
	s.mu.Unlock()
}

// execute runs e and records the run in job_run_logs. The returned error
// is only set when the run log could not be written.
func (s *JobScheduler) execute(ctx context.Context, e *entry) (*db.JobRunLog, error) {
	runLog := &db.JobRunLog{
		JobName:   e.Name,
		Status:    db.RunStatusRunning,
		StartedAt: s.now(),
	}
	logID, err := s.store.InsertJobRunLog(ctx, runLog)
	if err != nil {
		return nil, fmt.Errorf("inserting run log: %w", err)
	}
	runLog.ID = logID

	detail, runErr := e.Run(ctx)

	runLog.FinishedAt = s.now()
	runLog.Detail = detail
	if runErr != nil {
		runLog.Status = db.RunStatusFailed
		runLog.ErrorText = runErr.Error()
		s.logger.Warn("job failed", "job", e.Name, "error", runErr)
	} else {
		runLog.Status = db.RunStatusSuccess
		s.logger.Info("job finished", "job", e.Name, "detail", detail, "duration", runLog.FinishedAt.Sub(runLog.StartedAt))
	}

	if err := s.store.UpdateJobRunLog(ctx, runLog); err != nil {
		return runLog, fmt.Errorf("updating run log: %w", err)
	}
	return runLog, nil
}
