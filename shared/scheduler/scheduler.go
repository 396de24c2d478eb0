package scheduler

import (
	"context"
	"fmt"
	"time"

	"learning-path/shared/logging"
	"learning-path/shared/monitoring"

	"github.com/robfig/cron/v3"
)

// Metrics defines the common interface for agent metrics
type Metrics interface {
	// GetSummary returns a human-readable summary of the run
	GetSummary() string
}

// AgentEvents provides callbacks for monitoring agent execution
type AgentEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
}

// Agent defines the interface that all agents must implement
type Agent interface {
	Name() string
	RunOnce(ctx context.Context, events *AgentEvents) error
	Initialize() error
}

// Scheduler runs one agent on a cron schedule and reports outcomes to the
// monitor.
type Scheduler struct {
	schedule string
	monitor  *monitoring.Monitor
	agent    Agent
	cron     *cron.Cron
	log      *logging.Logger
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	log *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}

func New(schedule string, agent Agent, monitor *monitoring.Monitor, log *logging.Logger) *Scheduler {
	log = log.With("service", "Scheduler", "agent", agent.Name())
	cl := cronLogger{log: log}

	return &Scheduler{
		schedule: schedule,
		monitor:  monitor,
		agent:    agent,
		log:      log,
		// Prevent overlapping runs
		cron: cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Error("Scheduled run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.log.Info("Scheduler started", "schedule", s.schedule)
	s.cron.Start()

	<-ctx.Done()
	s.log.Info("Scheduler stopped")
	<-s.cron.Stop().Done()
	return ctx.Err()
}

func (s *Scheduler) RunOnce(ctx context.Context) error {
	startTime := time.Now()
	agentName := s.agent.Name()

	s.log.Info("Starting run")

	events := &AgentEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			s.monitor.RecordSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			s.monitor.RecordPartialFailure(fmt.Errorf("%s partial failure: %w", agentName, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s critical failure: %w", agentName, err), duration)
		},
	}

	if err := s.agent.RunOnce(ctx, events); err != nil {
		duration := time.Since(startTime)
		s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", agentName, err), duration)
		return fmt.Errorf("%s run failed: %w", agentName, err)
	}

	return nil
}
