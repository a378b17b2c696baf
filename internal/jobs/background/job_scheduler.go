package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

const (
	purgeInterval     = time.Hour
	reconcileInterval = 10 * time.Minute
	jobTimeout        = 5 * time.Minute
)

// JobScheduler runs the periodic maintenance jobs. With a distributed
// locker only one instance runs each job per tick.
type JobScheduler struct {
	scheduler gocron.Scheduler
	tasks     *Tasks
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

func NewJobScheduler(tasks *Tasks, opts ...gocron.SchedulerOption) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		tasks:     tasks,
		jobs:      make(map[string]gocron.Job),
	}
	if err := js.registerJobs(); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

func (js *JobScheduler) Start() {
	log.Info().Int("jobs", len(js.jobs)).Msg("starting background job scheduler")
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	log.Info().Msg("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// RunNow triggers a registered job outside its schedule.
func (js *JobScheduler) RunNow(name string) error {
	js.mu.RLock()
	job, ok := js.jobs[name]
	js.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return job.RunNow()
}

// JobNames lists the registered jobs.
func (js *JobScheduler) JobNames() []string {
	js.mu.RLock()
	defer js.mu.RUnlock()
	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	return names
}

func (js *JobScheduler) registerJobs() error {
	defs := []struct {
		name     string
		interval time.Duration
		run      func(ctx context.Context) error
	}{
		{JobPendingSignupPurge, purgeInterval, func(ctx context.Context) error {
			_, err := js.tasks.PurgeExpiredSignups(ctx)
			return err
		}},
		{JobTenantReconcile, reconcileInterval, func(ctx context.Context) error {
			_, err := js.tasks.ReconcileTenants(ctx)
			return err
		}},
	}

	js.mu.Lock()
	defer js.mu.Unlock()
	for _, def := range defs {
		run := def.run
		job, err := js.scheduler.NewJob(
			gocron.DurationJob(def.interval),
			gocron.NewTask(func() error {
				ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
				defer cancel()
				return run(ctx)
			}),
			gocron.WithName(def.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("register job %s: %w", def.name, err)
		}
		js.jobs[def.name] = job
	}
	return nil
}
