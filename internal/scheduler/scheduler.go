package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler runs tasks at wall-clock times. Every job carries a slot id as
// its tag; scheduling under an existing slot replaces the pending job.
type Scheduler struct {
	scheduler *gocron.Scheduler
	// gocron's builder chain is not safe for concurrent use
	mu sync.Mutex
}

// New creates a new scheduler instance evaluating times in loc
func New(loc *time.Location) *Scheduler {
	return &Scheduler{scheduler: gocron.NewScheduler(loc)}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Daily runs task every day at the HH:MM time
func (s *Scheduler) Daily(slot, at string, task func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.remove(slot); err != nil {
		return err
	}
	if _, err := s.scheduler.Every(1).Day().At(at).Tag(slot).Do(task); err != nil {
		return fmt.Errorf("failed to schedule %s at %s: %w", slot, at, err)
	}
	return nil
}

// Once runs task a single time at the given instant
func (s *Scheduler) Once(slot string, at time.Time, task func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.remove(slot); err != nil {
		return err
	}
	if _, err := s.scheduler.Every(1).Day().StartAt(at).LimitRunsTo(1).Tag(slot).Do(task); err != nil {
		return fmt.Errorf("failed to schedule %s at %s: %w", slot, at.Format(time.RFC3339), err)
	}
	return nil
}

// Slots returns the slot ids of all pending jobs
func (s *Scheduler) Slots() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var slots []string
	for _, job := range s.scheduler.Jobs() {
		slots = append(slots, job.Tags()...)
	}
	sort.Strings(slots)
	return slots
}

func (s *Scheduler) remove(slot string) error {
	err := s.scheduler.RemoveByTag(slot)
	if err != nil && !errors.Is(err, gocron.ErrJobNotFoundWithTag) {
		return fmt.Errorf("failed to replace %s: %w", slot, err)
	}
	return nil
}
