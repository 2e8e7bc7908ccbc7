package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// HeartResetter is the sweep target; satisfied by the learner repository.
type HeartResetter interface {
	ResetAllHearts(ctx context.Context, maxHearts int, now time.Time) (int64, error)
}

// Scheduler runs the midnight heart refill for the daily_reset policy. The
// sweep is a safety net: reads already apply the refill lazily, the sweep
// just keeps dormant accounts from drifting.
type Scheduler struct {
	scheduler *gocron.Scheduler
	learners  HeartResetter
	maxHearts int
}

func New(learners HeartResetter, maxHearts int, loc *time.Location) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		learners:  learners,
		maxHearts: maxHearts,
	}
}

// Start schedules the sweep at midnight in the configured timezone and runs
// the scheduler in the background.
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Day().At("00:00").Do(s.resetHearts)
	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) resetHearts() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	n, err := s.learners.ResetAllHearts(ctx, s.maxHearts, time.Now())
	if err != nil {
		log.Printf("Heart reset sweep failed: %v", err)
		return
	}
	log.Printf("Heart reset sweep refilled %d learners", n)
}
