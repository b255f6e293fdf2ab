// Package tui renders the sentiment dashboard for terminal sessions.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"market-mood/internal/domain"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	historyRows  = 50
	fetchTimeout = 10 * time.Second
	summaryWidth = 80
)

type Source interface {
	LatestRecord(ctx context.Context) (domain.SentimentRecord, error)
	History(ctx context.Context, limit int) ([]domain.SentimentRecord, error)
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#3C3C8C")).Padding(0, 1)
	valueStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 2)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	fearStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	greedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	neutralTone = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
)

type dataMsg struct {
	latest  *domain.SentimentRecord
	history []domain.SentimentRecord
	err     error
}

type Model struct {
	source   Source
	table    table.Model
	latest   *domain.SentimentRecord
	err      error
	loading  bool
	username string
	width    int
	height   int
}

func NewModel(source Source, username string) *Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Timestamp (UTC)", Width: 18},
			{Title: "F&G", Width: 5},
			{Title: "VIX", Width: 7},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	return &Model{source: source, table: t, loading: true, username: username}
}

// SetSize fits the history table to the terminal.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	if h := height - 14; h > 3 {
		m.table.SetHeight(h)
	}
}

func (m *Model) Init() tea.Cmd {
	return m.fetch
}

func (m *Model) fetch() tea.Msg {
	if m.source == nil {
		return dataMsg{err: fmt.Errorf("no data source")}
	}
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	msg := dataMsg{}
	rec, err := m.source.LatestRecord(ctx)
	if err == nil {
		msg.latest = &rec
	}
	history, herr := m.source.History(ctx, historyRows)
	if herr != nil {
		msg.err = herr
	} else if err != nil && len(history) == 0 {
		msg.err = err
	}
	msg.history = history
	return msg
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, m.fetch
		}
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	case dataMsg:
		m.loading = false
		m.err = msg.err
		if msg.latest != nil {
			m.latest = msg.latest
		}
		m.table.SetRows(historyTableRows(msg.history))
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Market Sentiment Dashboard"))
	if m.username != "" {
		b.WriteString(helpStyle.Render("  signed in as " + m.username))
	}
	b.WriteString("\n\n")

	fg := domain.DisplayFearGreed(nil)
	vix := "N/A"
	updated := "N/A"
	summary := ""
	if m.latest != nil {
		fg = domain.DisplayFearGreed(m.latest.FearGreed)
		if m.latest.VIX != nil {
			vix = fmt.Sprintf("%.2f", *m.latest.VIX)
		}
		if !m.latest.Timestamp.IsZero() {
			updated = m.latest.Timestamp.UTC().Format("2006-01-02 15:04")
		}
		summary = m.latest.SummaryText
	}

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render("Fear & Greed\n"+valueStyle.Render(toneFor(fg).Render(fmt.Sprintf("%d", fg)))),
		boxStyle.Render("VIX\n"+valueStyle.Render(vix)),
		boxStyle.Render("Updated (UTC)\n"+valueStyle.Render(updated)),
	)
	b.WriteString(cards)
	b.WriteString("\n")

	if summary != "" {
		b.WriteString(lipgloss.NewStyle().Width(summaryWidth).Render(firstParagraph(summary)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}
	status := "r refresh • q quit"
	if m.loading {
		status = "loading… • " + status
	}
	b.WriteString(helpStyle.Render(status))
	return b.String()
}

func historyTableRows(history []domain.SentimentRecord) []table.Row {
	rows := make([]table.Row, 0, len(history))
	for _, rec := range history {
		fg := "N/A"
		if rec.FearGreed != nil {
			fg = fmt.Sprintf("%d", *rec.FearGreed)
		}
		vix := "N/A"
		if rec.VIX != nil {
			vix = fmt.Sprintf("%.2f", *rec.VIX)
		}
		rows = append(rows, table.Row{rec.Timestamp.UTC().Format("2006-01-02 15:04"), fg, vix})
	}
	return rows
}

func toneFor(fg int) lipgloss.Style {
	switch {
	case fg < 45:
		return fearStyle
	case fg > 55:
		return greedStyle
	default:
		return neutralTone
	}
}

func firstParagraph(s string) string {
	if i := strings.Index(s, "\n\n"); i >= 0 {
		return s[:i]
	}
	return s
}
