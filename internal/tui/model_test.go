package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"market-mood/internal/domain"

	tea "github.com/charmbracelet/bubbletea"
)

type stubSource struct {
	rec        domain.SentimentRecord
	recErr     error
	history    []domain.SentimentRecord
	historyErr error
	calls      int
}

func (s *stubSource) LatestRecord(ctx context.Context) (domain.SentimentRecord, error) {
	s.calls++
	return s.rec, s.recErr
}

func (s *stubSource) History(ctx context.Context, limit int) ([]domain.SentimentRecord, error) {
	return s.history, s.historyErr
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func load(t *testing.T, m *Model) {
	t.Helper()
	msg := m.Init()()
	if _, ok := msg.(dataMsg); !ok {
		t.Fatalf("expected dataMsg, got %T", msg)
	}
	m.Update(msg)
}

func TestModelShowsLatestAndHistory(t *testing.T) {
	at := time.Date(2024, 4, 2, 15, 30, 0, 0, time.UTC)
	src := &stubSource{
		rec: domain.SentimentRecord{FearGreed: intPtr(71), VIX: floatPtr(13.2), SummaryText: "Risk appetite is back.\n\nMore detail.", Timestamp: at},
		history: []domain.SentimentRecord{
			{FearGreed: intPtr(71), VIX: floatPtr(13.2), Timestamp: at},
			{Timestamp: at.Add(-time.Hour)},
		},
	}
	m := NewModel(src, "alice")
	load(t, m)

	view := m.View()
	for _, want := range []string{"71", "13.20", "2024-04-02 15:30", "Risk appetite is back.", "2024-04-02 14:30", "N/A", "alice"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "More detail.") {
		t.Error("expected only the first summary paragraph")
	}
	if got := len(m.table.Rows()); got != 2 {
		t.Errorf("expected 2 rows, got %d", got)
	}
}

func TestModelEmptyStore(t *testing.T) {
	src := &stubSource{recErr: errors.New("no reading")}
	m := NewModel(src, "")
	load(t, m)

	view := m.View()
	if !strings.Contains(view, "50") || !strings.Contains(view, "N/A") {
		t.Errorf("expected neutral defaults, got:\n%s", view)
	}
	if !strings.Contains(view, "no reading") {
		t.Error("expected error to be shown")
	}
}

func TestModelRefreshAndQuit(t *testing.T) {
	src := &stubSource{rec: domain.SentimentRecord{FearGreed: intPtr(30)}}
	m := NewModel(src, "")
	load(t, m)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil || !m.loading {
		t.Fatal("expected refresh command")
	}
	m.Update(cmd())
	if src.calls != 2 || m.loading {
		t.Errorf("expected second fetch, calls=%d loading=%v", src.calls, m.loading)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModelWindowResize(t *testing.T) {
	m := NewModel(&stubSource{}, "")
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.width != 120 || m.height != 40 {
		t.Errorf("unexpected size: %dx%d", m.width, m.height)
	}
	if m.table.Height() < 20 {
		t.Errorf("expected table to grow with the terminal, got %d", m.table.Height())
	}
}
