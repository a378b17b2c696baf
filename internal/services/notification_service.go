package services

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"text/template"

	"reviso/internal/common"
	"reviso/internal/config"

	"github.com/rs/zerolog/log"
)

// Email is a plain-text transactional message.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// NotificationService sends user-facing lifecycle notifications.
type NotificationService interface {
	SendWelcome(ctx context.Context, to, agencyName string) error
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`Hello!

Your agency {{.AgencyName}} is now active on Reviso.

Sign in at {{.LoginURL}} with the email and password you chose during signup.
`))

type welcomeData struct {
	AgencyName string
	LoginURL   string
}

type notificationService struct {
	mailer   Mailer
	loginURL string
}

func NewNotificationService(mailer Mailer, frontendBaseURL string) NotificationService {
	return &notificationService{mailer: mailer, loginURL: frontendBaseURL + "/login"}
}

func (s *notificationService) SendWelcome(ctx context.Context, to, agencyName string) error {
	var buf bytes.Buffer
	if err := welcomeTemplate.Execute(&buf, welcomeData{AgencyName: agencyName, LoginURL: s.loginURL}); err != nil {
		return fmt.Errorf("render welcome email: %w", err)
	}
	return s.mailer.Send(ctx, Email{
		To:      to,
		Subject: "Welcome to Reviso!",
		Body:    buf.String(),
	})
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpMailer struct {
	cfg      config.SMTPConfig
	sendMail sendMailFunc
}

func NewSMTPMailer(cfg config.SMTPConfig) Mailer {
	return &smtpMailer{cfg: cfg, sendMail: smtp.SendMail}
}

func (m *smtpMailer) Send(_ context.Context, msg Email) error {
	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	body := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", m.cfg.From, msg.To, msg.Subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
			msg.Body,
	)

	if err := m.sendMail(addr, auth, m.cfg.From, []string{msg.To}, body); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	log.Info().Str("to", common.MaskEmail(msg.To)).Str("subject", msg.Subject).Msg("email sent")
	return nil
}

// logMailer is used when no SMTP server is configured.
type logMailer struct{}

func NewLogMailer() Mailer {
	return logMailer{}
}

func (logMailer) Send(_ context.Context, msg Email) error {
	log.Info().
		Str("to", common.MaskEmail(msg.To)).
		Str("subject", msg.Subject).
		Msg("email delivery disabled, message logged only")
	return nil
}
