package job

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs registered jobs on fixed intervals. Every job runs once when
// the scheduler starts and a tick that finds the previous run still busy is
// skipped.
type Scheduler struct {
	cron    *cron.Cron
	entries []entry
}

type entry struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context)
}

func NewScheduler() *Scheduler {
	logger := cron.VerbosePrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		)),
	}
}

func (s *Scheduler) Every(name string, interval time.Duration, run func(ctx context.Context)) {
	s.entries = append(s.entries, entry{name: name, interval: interval, run: run})
}

// Start blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, e := range s.entries {
		if e.interval <= 0 {
			return fmt.Errorf("job %s: interval must be positive", e.name)
		}
		run := e.run
		if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", e.interval), func() { run(ctx) }); err != nil {
			return fmt.Errorf("schedule %s: %w", e.name, err)
		}
		log.Printf("Scheduled %s every %s", e.name, e.interval)
	}

	for _, e := range s.entries {
		if ctx.Err() != nil {
			return nil
		}
		e.run(ctx)
	}

	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	log.Println("Scheduler stopped")
	return nil
}
