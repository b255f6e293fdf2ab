package alert

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

const LogoCID = "mailfooterlogo"

//go:embed templates/vix_alert.html
var templateFS embed.FS

var alertTemplate = template.Must(template.ParseFS(templateFS, "templates/vix_alert.html"))

// Message is a rendered email with an HTML body and a plain text fallback.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

type messageData struct {
	VIX            float64
	Threshold      float64
	TriggeredAt    string
	Year           int
	UnsubscribeURL string
	HasLogo        bool
	LogoCID        string
}

func Subject(vix, threshold float64) string {
	return fmt.Sprintf("VIX Alert: VIX is at %.2f (Your Threshold: >%.2f)", vix, threshold)
}

// RenderMessage builds the alert for one subscriber. unsubscribeURL may be
// empty, in which case no link is included.
func RenderMessage(vix, threshold float64, at time.Time, unsubscribeURL string, hasLogo bool) (Message, error) {
	at = at.UTC()
	data := messageData{
		VIX:            vix,
		Threshold:      threshold,
		TriggeredAt:    at.Format("2006-01-02 15:04:05"),
		Year:           at.Year(),
		UnsubscribeURL: unsubscribeURL,
		HasLogo:        hasLogo,
		LogoCID:        LogoCID,
	}

	var html bytes.Buffer
	if err := alertTemplate.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render alert: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Market Sentiment Dashboard\n\n")
	fmt.Fprintf(&text, "The CBOE Volatility Index (VIX) has moved above the level you asked us to watch.\n\n")
	fmt.Fprintf(&text, "Current VIX Level: %.2f\n", vix)
	fmt.Fprintf(&text, "Your Alert Threshold: > %.2f\n", threshold)
	fmt.Fprintf(&text, "Alert Trigger Time (UTC): %s\n", data.TriggeredAt)
	if unsubscribeURL != "" {
		fmt.Fprintf(&text, "\nUnsubscribe: %s\n", unsubscribeURL)
	}

	return Message{
		Subject: Subject(vix, threshold),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
