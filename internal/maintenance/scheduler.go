package maintenance

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/projectdb/internal/config"
)

const (
	DefaultSchedule = "@daily"
	DefaultVacuum   = false
)

// Store is the subset of the database manager the scheduler drives.
type Store interface {
	Optimize() error
	Vacuum() error
}

// Config controls when and how maintenance runs.
type Config struct {
	Schedule string
	Vacuum   bool
}

// DefaultConfig returns the default maintenance configuration
func DefaultConfig() Config {
	return Config{Schedule: DefaultSchedule, Vacuum: DefaultVacuum}
}

// LoadConfig reads maintenance.* settings, falling back to defaults.
func LoadConfig(loader *config.Loader) Config {
	return Config{
		Schedule: loader.String("maintenance.schedule", DefaultSchedule),
		Vacuum:   loader.Bool("maintenance.vacuum", DefaultVacuum),
	}
}

// Scheduler runs store maintenance on a cron schedule.
type Scheduler struct {
	store   Store
	config  Config
	cron    *cron.Cron
	entryID cron.EntryID
	mu      sync.Mutex
	running bool
	lastRun time.Time
	lastErr error
}

// New creates a scheduler. The schedule is validated by Start.
func New(store Store, cfg Config) *Scheduler {
	return &Scheduler{
		store:  store,
		config: cfg,
		cron:   cron.New(),
	}
}

// Start registers the schedule and starts the cron runner.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	id, err := s.cron.AddFunc(s.config.Schedule, func() {
		if err := s.RunOnce(); err != nil {
			log.Error().Err(err).Msg("Scheduled maintenance failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid maintenance schedule %q: %w", s.config.Schedule, err)
	}

	s.entryID = id
	s.cron.Start()
	s.running = true

	log.Info().
		Str("schedule", s.config.Schedule).
		Bool("vacuum", s.config.Vacuum).
		Msg("Maintenance scheduler started")

	return nil
}

// Stop stops the cron runner and waits for a running job to finish.
// The lock is released before waiting: the job records its result under it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	id := s.entryID
	s.entryID = 0
	s.running = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron.Remove(id)

	log.Info().Msg("Maintenance scheduler stopped")
}

// NextRun returns the next scheduled run, or the zero time when stopped.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// LastRun returns when maintenance last ran and the error it returned.
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

// RunOnce optimizes the store and, when configured, vacuums it.
func (s *Scheduler) RunOnce() error {
	start := time.Now()

	err := s.store.Optimize()
	if err == nil && s.config.Vacuum {
		err = s.store.Vacuum()
	}

	s.mu.Lock()
	s.lastRun = start
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		return err
	}

	log.Debug().Dur("duration", time.Since(start)).Bool("vacuum", s.config.Vacuum).Msg("Maintenance complete")
	return nil
}
