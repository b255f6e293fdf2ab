package alert

import (
	"errors"
	"log"
	"os"
	"time"

	gomail "gopkg.in/mail.v2"
)

var ErrEmailDisabled = errors.New("email delivery not configured")

type EmailConfig struct {
	SMTPServer string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	FromEmail  string
	LogoPath   string
}

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender delivers alerts via SMTP.
type EmailSender struct {
	cfg    EmailConfig
	dialer mailDialer
}

func NewEmailSender(cfg EmailConfig) *EmailSender {
	dialer := gomail.NewDialer(cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	dialer.Timeout = 10 * time.Second
	return &EmailSender{cfg: cfg, dialer: dialer}
}

func (s *EmailSender) Enabled() bool {
	return s != nil && s.cfg.SMTPServer != "" && s.cfg.FromEmail != ""
}

// HasLogo reports whether the footer image exists on disk.
func (s *EmailSender) HasLogo() bool {
	if s == nil || s.cfg.LogoPath == "" {
		return false
	}
	info, err := os.Stat(s.cfg.LogoPath)
	return err == nil && !info.IsDir()
}

func (s *EmailSender) Send(to string, msg Message) error {
	if !s.Enabled() {
		return ErrEmailDisabled
	}

	m := s.build(to, msg)
	if err := s.dialer.DialAndSend(m); err != nil {
		log.Printf("Email error: failed to send to %s (Subject: %s): %v", to, msg.Subject, err)
		return err
	}
	log.Printf("Email sent to %s: %s", to, msg.Subject)
	return nil
}

func (s *EmailSender) build(to string, msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", msg.Subject)

	if msg.HTML != "" && msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	} else if msg.HTML != "" {
		m.SetBody("text/html", msg.HTML)
	} else {
		m.SetBody("text/plain", msg.Text)
	}

	if s.HasLogo() {
		m.Embed(s.cfg.LogoPath, gomail.SetHeader(map[string][]string{
			"Content-ID": {"<" + LogoCID + ">"},
		}))
	}
	return m
}
