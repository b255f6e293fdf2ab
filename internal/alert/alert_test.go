package alert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"market-mood/internal/domain"

	"go.opentelemetry.io/otel/trace"
	gomail "gopkg.in/mail.v2"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type stubVIX struct {
	value float64
	err   error
}

func (s stubVIX) FetchLatest(ctx context.Context) (*domain.VIXReading, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.VIXReading{Value: s.value}, nil
}

type stubSubs struct {
	due     []domain.Subscription
	dueErr  error
	gotVIX  float64
	gotGap  time.Duration
	marked  []int64
	markErr error
}

func (s *stubSubs) DueForAlert(ctx context.Context, vix float64, minGap time.Duration, now time.Time) ([]domain.Subscription, error) {
	s.gotVIX, s.gotGap = vix, minGap
	return s.due, s.dueErr
}

func (s *stubSubs) MarkAlerted(ctx context.Context, id int64, at time.Time) error {
	s.marked = append(s.marked, id)
	return s.markErr
}

type stubMailer struct {
	sent   map[string]Message
	failOn string
	logo   bool
}

func (s *stubMailer) HasLogo() bool { return s.logo }

func (s *stubMailer) Send(to string, msg Message) error {
	if to == s.failOn {
		return errors.New("smtp 550")
	}
	if s.sent == nil {
		s.sent = map[string]Message{}
	}
	s.sent[to] = msg
	return nil
}

func TestMonitorCheckSendsAndMarks(t *testing.T) {
	subs := &stubSubs{due: []domain.Subscription{
		{ID: 1, Email: "a@example.com", VIXThreshold: 20, UnsubscribeToken: "tok-a"},
		{ID: 2, Email: "b@example.com", VIXThreshold: 25, UnsubscribeToken: "tok-b"},
	}}
	mailer := &stubMailer{failOn: "b@example.com", logo: true}
	m := NewMonitor(testTracer, stubVIX{value: 31.456}, subs, mailer, 0, "https://mood.example.com/")
	m.now = func() time.Time { return time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC) }

	result, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.VIX != 31.456 || result.Checked != 2 || result.Sent != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "b@example.com") {
		t.Fatalf("expected one delivery error for b@example.com, got %v", result.Errors)
	}

	if len(subs.marked) != 1 || subs.marked[0] != 1 {
		t.Errorf("only delivered alerts are marked, got %v", subs.marked)
	}
	if subs.gotGap != 6*time.Hour {
		t.Errorf("expected default 6h gap, got %v", subs.gotGap)
	}

	msg := mailer.sent["a@example.com"]
	if msg.Subject != "VIX Alert: VIX is at 31.46 (Your Threshold: >20.00)" {
		t.Errorf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"cid:mailfooterlogo", "https://mood.example.com/api/alerts/unsubscribe/tok-a"} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("html missing %q", want)
		}
	}
	if !strings.Contains(msg.Text, "Alert Trigger Time (UTC): 2024-03-01 14:05:09") {
		t.Errorf("text missing trigger time: %q", msg.Text)
	}
}

func TestMonitorCheckNothingDue(t *testing.T) {
	mailer := &stubMailer{}
	m := NewMonitor(testTracer, stubVIX{value: 12}, &stubSubs{}, mailer, time.Hour, "")

	result, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Checked != 0 || len(mailer.sent) != 0 {
		t.Fatalf("expected nothing sent, got %+v sent=%d", result, len(mailer.sent))
	}
}

func TestMonitorCheckErrors(t *testing.T) {
	m := NewMonitor(testTracer, stubVIX{err: errors.New("yahoo down")}, &stubSubs{}, &stubMailer{}, 0, "")
	if _, err := m.Check(context.Background()); err == nil {
		t.Fatal("expected VIX fetch error")
	}

	m = NewMonitor(testTracer, stubVIX{value: 40}, &stubSubs{dueErr: errors.New("db down")}, &stubMailer{}, 0, "")
	result, err := m.Check(context.Background())
	if err == nil {
		t.Fatal("expected subscription query error")
	}
	if result.VIX != 40 {
		t.Errorf("expected VIX kept on partial result, got %v", result.VIX)
	}
}

func TestMonitorCheckMarkFailureStillCountsSent(t *testing.T) {
	subs := &stubSubs{
		due:     []domain.Subscription{{ID: 9, Email: "c@example.com", VIXThreshold: 18}},
		markErr: errors.New("conflict"),
	}
	m := NewMonitor(testTracer, stubVIX{value: 19}, subs, &stubMailer{}, 0, "")

	result, err := m.Check(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Sent != 1 || len(result.Errors) != 1 {
		t.Fatalf("expected sent=1 with one error, got %+v", result)
	}
}

func TestRenderMessageWithoutLogoOrLink(t *testing.T) {
	msg, err := RenderMessage(22.5, 20, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, unwanted := range []string{"cid:", "Unsubscribe"} {
		if strings.Contains(msg.HTML, unwanted) {
			t.Errorf("html should not contain %q", unwanted)
		}
	}
	for _, want := range []string{"22.50", "&copy; 2025"} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("html missing %q", want)
		}
	}
	if strings.Contains(msg.Text, "Unsubscribe") {
		t.Error("text should not contain an unsubscribe link")
	}
}

type recordingDialer struct {
	messages []*gomail.Message
	err      error
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	d.messages = append(d.messages, m...)
	return d.err
}

func TestEmailSenderBuildsMultipartWithLogo(t *testing.T) {
	logo := filepath.Join(t.TempDir(), "logo.png")
	if err := os.WriteFile(logo, []byte("\x89PNG fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	dialer := &recordingDialer{}
	sender := NewEmailSender(EmailConfig{SMTPServer: "smtp.example.com", SMTPPort: 587, FromEmail: "alerts@example.com", LogoPath: logo})
	sender.dialer = dialer

	msg, err := RenderMessage(30, 20, time.Now(), "", sender.HasLogo())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := sender.Send("user@example.com", msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(dialer.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(dialer.messages))
	}

	var buf bytes.Buffer
	if _, err := dialer.messages[0].WriteTo(&buf); err != nil {
		t.Fatalf("write message: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"Content-ID: <mailfooterlogo>", "text/plain", "text/html", "To: user@example.com"} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestEmailSenderDisabled(t *testing.T) {
	sender := NewEmailSender(EmailConfig{})
	if sender.Enabled() || sender.HasLogo() {
		t.Fatal("expected a disabled sender without logo")
	}
	if err := sender.Send("x@example.com", Message{Subject: "s", Text: "t"}); !errors.Is(err, ErrEmailDisabled) {
		t.Fatalf("expected ErrEmailDisabled, got %v", err)
	}
}

func TestEmailSenderPropagatesDialError(t *testing.T) {
	sender := NewEmailSender(EmailConfig{SMTPServer: "smtp.example.com", SMTPPort: 25, FromEmail: "a@example.com"})
	sender.dialer = &recordingDialer{err: errors.New("auth failed")}
	if err := sender.Send("x@example.com", Message{Subject: "s", Text: "t"}); err == nil {
		t.Fatal("expected dial error")
	}
}
