package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"market-mood/internal/domain"
	"market-mood/internal/htmlclean"

	tele "gopkg.in/telebot.v3"
)

const (
	headlineCount  = 5
	summaryExcerpt = 600
	replyTimeout   = 20 * time.Second
)

type SentimentSource interface {
	LatestRecord(ctx context.Context) (domain.SentimentRecord, error)
	LatestNews(ctx context.Context) (domain.Snapshot, error)
}

type VIXSource interface {
	FetchLatest(ctx context.Context) (*domain.VIXReading, error)
}

var newBot = tele.NewBot

// StartTelegramBot serves chat commands until ctx is cancelled. An empty
// token skips startup.
func StartTelegramBot(ctx context.Context, token string, sentiment SentimentSource, vix VIXSource) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := newBot(pref)
	if err != nil {
		log.Printf("Warning: failed to create Telegram bot: %v", err)
		return
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/sentiment", func(c tele.Context) error {
		rctx, cancel := context.WithTimeout(ctx, replyTimeout)
		defer cancel()
		return c.Send(sentimentReply(rctx, sentiment))
	})

	b.Handle("/vix", func(c tele.Context) error {
		rctx, cancel := context.WithTimeout(ctx, replyTimeout)
		defer cancel()
		return c.Send(vixReply(rctx, vix))
	})

	b.Handle("/news", func(c tele.Context) error {
		rctx, cancel := context.WithTimeout(ctx, replyTimeout)
		defer cancel()
		return c.Send(newsReply(rctx, sentiment), tele.NoPreview)
	})

	log.Println("Telegram bot started")
	go b.Start()
	go func() {
		<-ctx.Done()
		b.Stop()
	}()
}

func sentimentReply(ctx context.Context, src SentimentSource) string {
	if src == nil {
		return "Sentiment data is not available."
	}
	rec, err := src.LatestRecord(ctx)
	if err != nil {
		return fmt.Sprintf("No sentiment reading available yet (%v)", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Fear & Greed: %d/100\n", domain.DisplayFearGreed(rec.FearGreed))
	if rec.VIX != nil {
		fmt.Fprintf(&b, "VIX: %.2f\n", *rec.VIX)
	} else {
		b.WriteString("VIX: N/A\n")
	}
	fmt.Fprintf(&b, "Updated: %s UTC", rec.Timestamp.UTC().Format("2006-01-02 15:04"))
	if rec.SummaryText != "" {
		fmt.Fprintf(&b, "\n\n%s", excerpt(rec.SummaryText, summaryExcerpt))
	}
	return b.String()
}

func vixReply(ctx context.Context, src VIXSource) string {
	if src == nil {
		return "VIX data is not available."
	}
	reading, err := src.FetchLatest(ctx)
	if err != nil {
		return fmt.Sprintf("Error fetching VIX: %v", err)
	}
	return fmt.Sprintf("VIX: %.2f\nAs of: %s", reading.Value, reading.TimestampUTC)
}

func newsReply(ctx context.Context, src SentimentSource) string {
	if src == nil {
		return "News is not available."
	}
	snap, err := src.LatestNews(ctx)
	if err != nil || len(snap.Articles) == 0 {
		return "No headlines cached yet. Try again after the next pipeline run."
	}

	n := min(headlineCount, len(snap.Articles))
	lines := make([]string, 0, n)
	for i, a := range snap.Articles[:n] {
		title := a.Title
		if title == "" || title == htmlclean.Empty {
			title = "(untitled)"
		}
		lines = append(lines, fmt.Sprintf("%d. %s [%s]\n%s", i+1, title, a.Source, a.Link))
	}
	return strings.Join(lines, "\n\n")
}

func excerpt(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit])) + "..."
}
