package app

import (
	"os"
	"path/filepath"
	"testing"

	"market-mood/internal/config"
	"market-mood/internal/provider"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func TestNewSourcesDefaultCatalog(t *testing.T) {
	src, err := NewSources(&config.Config{}, testTracer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Scraper == nil || src.VIX == nil || src.Benchmark == nil {
		t.Fatalf("expected all sources wired, got %+v", src)
	}
	if len(src.Feeds) != len(provider.DefaultFeeds) || src.Feeds[0] != provider.DefaultFeeds[0] {
		t.Errorf("expected default feed catalog, got %v", src.Feeds)
	}
}

func TestNewSourcesCustomCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	if err := os.WriteFile(path, []byte("feeds:\n  - name: Example\n    url: https://example.com/rss\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := NewSources(&config.Config{FeedsFile: path}, testTracer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.Feeds) != 1 || src.Feeds[0].Name != "Example" {
		t.Fatalf("expected the custom feed, got %v", src.Feeds)
	}

	if _, err := NewSources(&config.Config{FeedsFile: filepath.Join(t.TempDir(), "missing.yaml")}, testTracer); err == nil {
		t.Fatal("expected error for a missing catalog file")
	}
}

func TestNewAnalyst(t *testing.T) {
	if NewAnalyst(&config.Config{}, testTracer) != nil {
		t.Error("expected no analyst without an API key")
	}
	if NewAnalyst(&config.Config{OpenAIAPIKey: "sk-test", OpenAIModel: "gpt-4o-mini"}, testTracer) == nil {
		t.Error("expected an analyst with an API key")
	}
}

func TestNewMailer(t *testing.T) {
	if NewMailer(&config.Config{}).Enabled() {
		t.Error("expected mailer disabled without SMTP settings")
	}
	if !NewMailer(&config.Config{SMTPServer: "smtp.example.com", SMTPPort: 587, SMTPFrom: "a@example.com"}).Enabled() {
		t.Error("expected mailer enabled with SMTP settings")
	}
}
