package domain

import "time"

// NeutralFearGreed is shown whenever no usable index is stored.
const NeutralFearGreed = 50

// Article is one deduplicated news item. PublishedUTC is always a canonical
// timestamp string, possibly the epoch sentinel.
type Article struct {
	Title        string `json:"title"`
	Link         string `json:"link"`
	Summary      string `json:"summary"`
	Source       string `json:"source"`
	PublishedUTC string `json:"published_utc"`
}

type VIXReading struct {
	Value        float64 `json:"vix"`
	TimestampUTC string  `json:"timestamp_utc"`
}

// BenchmarkReading is the published market Fear & Greed score used as a
// reference next to the model estimate.
type BenchmarkReading struct {
	Score        float64 `json:"score"`
	Rating       string  `json:"rating"`
	TimestampUTC string  `json:"timestamp_utc"`
}

type Snapshot struct {
	GeneratedUTC string      `json:"generated_utc"`
	VIX          *VIXReading `json:"vix_data,omitempty"`
	Articles     []Article   `json:"articles"`
	Errors       []string    `json:"errors,omitempty"`
}

// Succeeded reports whether the scrape produced anything worth analyzing.
func (s Snapshot) Succeeded() bool {
	return len(s.Articles) > 0 || s.VIX != nil
}

type SentimentRecord struct {
	ID          int64     `json:"id"`
	FearGreed   *int      `json:"fear_greed"`
	VIX         *float64  `json:"vix"`
	SummaryText string    `json:"summary_text"`
	Timestamp   time.Time `json:"timestamp"`
}

// LatestIndices is the compact reading kept in the cache for the dashboard.
type LatestIndices struct {
	FearGreed    *int              `json:"fear_greed"`
	VIX          *float64          `json:"vix"`
	Benchmark    *BenchmarkReading `json:"benchmark,omitempty"`
	TimestampUTC string            `json:"timestamp_utc"`
}

type Subscription struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	VIXThreshold     float64    `json:"vix_threshold"`
	LastAlertSentAt  *time.Time `json:"last_alert_sent_at,omitempty"`
	IsActive         bool       `json:"is_active"`
	UnsubscribeToken string     `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
}

type PipelineResult struct {
	RunID     string        `json:"run_id"`
	Articles  int           `json:"articles"`
	VIX       *float64      `json:"vix"`
	FearGreed *int          `json:"fear_greed"`
	Analyzed  bool          `json:"analyzed"`
	Saved     bool          `json:"saved"`
	Errors    []string      `json:"errors"`
	Duration  time.Duration `json:"duration_ns"`
}

type AlertResult struct {
	VIX     float64  `json:"vix"`
	Checked int      `json:"checked"`
	Sent    int      `json:"sent"`
	Errors  []string `json:"errors"`
}

// DisplayFearGreed clamps a stored index to what the dashboard can show.
func DisplayFearGreed(v *int) int {
	if v == nil || *v < 0 || *v > 100 {
		return NeutralFearGreed
	}
	return *v
}
