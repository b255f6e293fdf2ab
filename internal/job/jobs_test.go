package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"market-mood/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type pipelineRunnerStub struct {
	calls *int32
	err   error
}

func (s *pipelineRunnerStub) RunPipeline(ctx context.Context) (domain.PipelineResult, error) {
	atomic.AddInt32(s.calls, 1)
	if _, ok := ctx.Deadline(); !ok {
		return domain.PipelineResult{}, errors.New("expected deadline")
	}
	return domain.PipelineResult{RunID: "run"}, s.err
}

type alertCheckerStub struct {
	calls *int32
}

func (s *alertCheckerStub) Check(ctx context.Context) (domain.AlertResult, error) {
	atomic.AddInt32(s.calls, 1)
	return domain.AlertResult{VIX: 31, Checked: 2, Sent: 1}, nil
}

func TestPipelineJobRunOnce(t *testing.T) {
	var calls int32
	job := NewPipelineJob(testTracer, &pipelineRunnerStub{calls: &calls}, time.Second)
	job.RunOnce(context.Background())

	failing := NewPipelineJob(testTracer, &pipelineRunnerStub{calls: &calls, err: errors.New("boom")}, 0)
	failing.RunOnce(context.Background())

	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 runs, got %d", calls)
	}
	if failing.timeout != 10*time.Minute {
		t.Fatalf("expected default timeout, got %v", failing.timeout)
	}
}

func TestAlertJobRunOnce(t *testing.T) {
	var calls int32
	job := NewAlertJob(testTracer, &alertCheckerStub{calls: &calls}, 0)
	job.RunOnce(context.Background())
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected 1 check, got %d", calls)
	}
}

func TestSchedulerRunsEveryJobAtStart(t *testing.T) {
	var pipelineCalls, alertCalls int32
	s := NewScheduler()
	s.Every("pipeline", 25*time.Minute, NewPipelineJob(testTracer, &pipelineRunnerStub{calls: &pipelineCalls}, time.Second).RunOnce)
	s.Every("alerts", 5*time.Minute, NewAlertJob(testTracer, &alertCheckerStub{calls: &alertCalls}, time.Second).RunOnce)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	eventually(t, func() bool {
		return atomic.LoadInt32(&pipelineCalls) == 1 && atomic.LoadInt32(&alertCalls) == 1
	})
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	if len(s.cron.Entries()) != 2 {
		t.Fatalf("expected 2 cron entries, got %d", len(s.cron.Entries()))
	}
}

func TestSchedulerRejectsNonPositiveInterval(t *testing.T) {
	s := NewScheduler()
	s.Every("broken", 0, func(context.Context) {})
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for zero interval")
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
