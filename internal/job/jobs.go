package job

import (
	"context"
	"log"
	"time"

	"market-mood/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type PipelineRunner interface {
	RunPipeline(ctx context.Context) (domain.PipelineResult, error)
}

type AlertChecker interface {
	Check(ctx context.Context) (domain.AlertResult, error)
}

type PipelineJob struct {
	tracer  trace.Tracer
	runner  PipelineRunner
	timeout time.Duration
}

func NewPipelineJob(tracer trace.Tracer, runner PipelineRunner, timeout time.Duration) *PipelineJob {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &PipelineJob{tracer: tracer, runner: runner, timeout: timeout}
}

func (j *PipelineJob) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	ctx, span := j.tracer.Start(ctx, "pipeline-job.run-once")
	defer span.End()

	result, err := j.runner.RunPipeline(ctx)
	if err != nil {
		span.RecordError(err)
		log.Printf("Pipeline cycle error: %v", err)
		return
	}
	span.SetAttributes(
		attribute.Int("pipeline.articles", result.Articles),
		attribute.Bool("pipeline.saved", result.Saved),
	)
	log.Printf(
		"Pipeline cycle complete run=%s articles=%d analyzed=%t saved=%t warnings=%d took=%s",
		result.RunID,
		result.Articles,
		result.Analyzed,
		result.Saved,
		len(result.Errors),
		result.Duration.Round(time.Millisecond),
	)
}

type AlertJob struct {
	tracer  trace.Tracer
	checker AlertChecker
	timeout time.Duration
}

func NewAlertJob(tracer trace.Tracer, checker AlertChecker, timeout time.Duration) *AlertJob {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &AlertJob{tracer: tracer, checker: checker, timeout: timeout}
}

func (j *AlertJob) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	ctx, span := j.tracer.Start(ctx, "alert-job.run-once")
	defer span.End()

	result, err := j.checker.Check(ctx)
	if err != nil {
		span.RecordError(err)
		log.Printf("VIX alert check error: %v", err)
		return
	}
	if result.Sent > 0 || len(result.Errors) > 0 {
		log.Printf("VIX alert check complete vix=%.2f checked=%d sent=%d errors=%d",
			result.VIX, result.Checked, result.Sent, len(result.Errors))
	}
}
