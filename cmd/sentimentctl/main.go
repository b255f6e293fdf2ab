package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"market-mood/internal/config"
	"market-mood/pkg/tracing"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	exitFunc       = os.Exit
)

// cli carries what every subcommand needs once flags are parsed.
type cli struct {
	ctx    context.Context
	out    io.Writer
	cfg    *config.Config
	tracer trace.Tracer
}

func main() {
	loadEnvFunc()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exitFunc(run(ctx, os.Args[1:], os.Stdout))
}

func run(ctx context.Context, args []string, out io.Writer) int {
	c := &cli{ctx: ctx, out: out, cfg: loadConfigFunc()}

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		ServiceName: "market-mood-cli",
		Endpoint:    c.cfg.OTLPEndpoint,
		Enabled:     c.cfg.TracingEnabled,
	})
	if err != nil {
		log.Printf("Warning: tracing disabled: %v", err)
		c.tracer = noop.NewTracerProvider().Tracer("market-mood-cli")
	} else {
		c.tracer = tracer
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Printf("error shutting down tracer provider: %v", err)
			}
		}()
	}

	parser := newParser(c)
	if _, err := parser.ParseArgs(args); err != nil {
		if flags.WroteHelp(err) {
			return 0
		}
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			return 2
		}
		return 1
	}
	return 0
}

func newParser(c *cli) *flags.Parser {
	parser := flags.NewParser(nil, flags.Default)
	parser.Name = "sentimentctl"
	parser.ShortDescription = "one-shot market sentiment tasks"

	parser.AddCommand("scrape", "Scrape news and VIX once",
		"Fetches every configured feed, NewsAPI and the VIX, then prints the snapshot as JSON.",
		&scrapeCommand{cli: c})
	parser.AddCommand("analyze", "Analyze a saved snapshot",
		"Sends a snapshot produced by scrape to the model and prints the parsed index and summary.",
		&analyzeCommand{cli: c})
	parser.AddCommand("alerts", "Run one VIX alert check",
		"Emails every subscriber whose threshold the current VIX exceeds.",
		&alertsCommand{cli: c})
	parser.AddCommand("normalize", "Normalize timestamps",
		"Prints each VALUE as a canonical UTC timestamp (YYYY-MM-DDTHH:MM:SSZ).",
		&normalizeCommand{cli: c})
	return parser
}
