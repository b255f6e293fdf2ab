package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"market-mood/internal/alert"
	"market-mood/internal/app"
	"market-mood/internal/config"
	"market-mood/internal/db"
	"market-mood/internal/domain"
	"market-mood/internal/repository"
	"market-mood/internal/timestamp"

	"go.opentelemetry.io/otel/trace"
)

type sentimentSaver interface {
	Insert(ctx context.Context, rec domain.SentimentRecord) (domain.SentimentRecord, error)
}

var (
	scrapeFunc = func(ctx context.Context, cfg *config.Config, tracer trace.Tracer) (domain.Snapshot, error) {
		src, err := app.NewSources(cfg, tracer)
		if err != nil {
			return domain.Snapshot{}, err
		}
		return src.Scraper.Run(ctx)
	}
	newAnalystFunc      = app.NewAnalyst
	openSentimentDBFunc = func(ctx context.Context, cfg *config.Config, tracer trace.Tracer) (sentimentSaver, func(), error) {
		pool, err := openDB(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewSentimentRepository(pool, tracer), db.Close, nil
	}
	checkAlertsFunc = func(ctx context.Context, cfg *config.Config, tracer trace.Tracer) (domain.AlertResult, error) {
		pool, err := openDB(ctx, cfg)
		if err != nil {
			return domain.AlertResult{}, err
		}
		defer db.Close()

		src, err := app.NewSources(cfg, tracer)
		if err != nil {
			return domain.AlertResult{}, err
		}
		mailer := app.NewMailer(cfg)
		if !mailer.Enabled() {
			return domain.AlertResult{}, alert.ErrEmailDisabled
		}
		subs := repository.NewSubscriptionRepository(pool, tracer)
		monitor := alert.NewMonitor(tracer, src.VIX, subs, mailer, cfg.AlertMinGap, cfg.PublicBaseURL)
		return monitor.Check(ctx)
	}
)

func openDB(ctx context.Context, cfg *config.Config) (repository.PgxPool, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	db.InitPostgres(ctx, cfg.DatabaseURL)
	if err := repository.RunMigrations(ctx, db.Pool); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return db.Pool, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

type scrapeCommand struct {
	Output string `short:"o" long:"output" description:"Write the snapshot to this file instead of stdout"`

	cli *cli
}

func (c *scrapeCommand) Execute(args []string) error {
	snap, err := scrapeFunc(c.cli.ctx, c.cli.cfg, c.cli.tracer)
	for _, e := range snap.Errors {
		log.Printf("source error: %s", e)
	}
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}

	if c.Output == "" {
		return writeJSON(c.cli.out, snap)
	}
	f, err := os.Create(c.Output)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := writeJSON(f, snap); err != nil {
		return err
	}
	log.Printf("Wrote %d articles to %s", len(snap.Articles), c.Output)
	return nil
}

type analyzeCommand struct {
	Input string `short:"i" long:"input" description:"Snapshot JSON written by scrape" required:"true"`
	Save  bool   `long:"save" description:"Store the result in sentiment_history"`
	Model string `long:"model" env:"OPENAI_MODEL" description:"Chat model to use"`

	cli *cli
}

type analyzeOutput struct {
	FearGreed   *int     `json:"fear_greed"`
	VIX         *float64 `json:"vix"`
	SummaryText string   `json:"summary_text"`
	SavedID     int64    `json:"saved_id,omitempty"`
}

func (c *analyzeCommand) Execute(args []string) error {
	data, err := os.ReadFile(c.Input)
	if err != nil {
		return err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode %s: %w", c.Input, err)
	}

	cfg := *c.cli.cfg
	if c.Model != "" {
		cfg.OpenAIModel = c.Model
	}
	analyst := newAnalystFunc(&cfg, c.cli.tracer)
	if analyst == nil {
		return errors.New("OPENAI_API_KEY is required for analyze")
	}

	parsed, _, err := analyst.Analyze(c.cli.ctx, snap.Articles, snap.VIX)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	if parsed.Summary == "" {
		return errors.New("analyze: model returned an empty summary")
	}

	out := analyzeOutput{FearGreed: parsed.Index, SummaryText: parsed.Summary}
	if snap.VIX != nil {
		v := snap.VIX.Value
		out.VIX = &v
	}

	if c.Save {
		store, closeDB, err := openSentimentDBFunc(c.cli.ctx, c.cli.cfg, c.cli.tracer)
		if err != nil {
			return err
		}
		defer closeDB()
		saved, err := store.Insert(c.cli.ctx, domain.SentimentRecord{
			FearGreed:   out.FearGreed,
			VIX:         out.VIX,
			SummaryText: out.SummaryText,
		})
		if err != nil {
			return fmt.Errorf("save: %w", err)
		}
		out.SavedID = saved.ID
	}
	return writeJSON(c.cli.out, out)
}

type alertsCommand struct {
	cli *cli
}

func (c *alertsCommand) Execute(args []string) error {
	result, err := checkAlertsFunc(c.cli.ctx, c.cli.cfg, c.cli.tracer)
	if err != nil {
		return fmt.Errorf("alerts: %w", err)
	}
	return writeJSON(c.cli.out, result)
}

type normalizeCommand struct {
	Args struct {
		Values []string `positional-arg-name:"VALUE" required:"1"`
	} `positional-args:"yes"`

	cli *cli
}

func (c *normalizeCommand) Execute(args []string) error {
	failed := 0
	for _, v := range c.Args.Values {
		ts, err := timestamp.Normalize(v)
		if err != nil {
			log.Printf("%s: %v", v, err)
			failed++
			continue
		}
		fmt.Fprintln(c.cli.out, ts)
	}
	if failed > 0 {
		return fmt.Errorf("%d value(s) could not be normalized", failed)
	}
	return nil
}
