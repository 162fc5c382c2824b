// Package mailer delivers OTP verification mails. Delivery is best effort:
// registration never fails because the mail gateway is down.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"

	"chatter-server/services/auth-api/internal/config"
	"chatter-server/services/auth-api/internal/infrastructure/metrics"
)

// Sender delivers a verification OTP to an address.
type Sender interface {
	SendOTP(ctx context.Context, email string, otp int) error
}

// New selects an SMTP sender when a host is configured and a log-only sender
// otherwise, so local development needs no mail gateway.
func New(cfg *config.Config, log zerolog.Logger) Sender {
	if cfg.SMTPHost == "" {
		return &logSender{log: log.With().Str("component", "mailer").Logger()}
	}
	return &smtpSender{
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth: smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost),
		from: cfg.SMTPFrom,
		log:  log.With().Str("component", "mailer").Logger(),
	}
}

type smtpSender struct {
	addr string
	auth smtp.Auth
	from string
	log  zerolog.Logger
}

func (s *smtpSender) SendOTP(ctx context.Context, email string, otp int) error {
	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Your verification email.\r\n\r\nYour verification otp is %d, Expires in 10min.\r\n",
		s.from, email, otp,
	)

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{email}, []byte(body)); err != nil {
		metrics.OTPMailsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("send otp mail: %w", err)
	}

	metrics.OTPMailsTotal.WithLabelValues("sent").Inc()
	s.log.Info().Str("email", email).Msg("otp mail sent")
	return nil
}

// logSender writes the OTP to the log instead of sending mail.
type logSender struct {
	log zerolog.Logger
}

func (s *logSender) SendOTP(ctx context.Context, email string, otp int) error {
	metrics.OTPMailsTotal.WithLabelValues("logged").Inc()
	s.log.Info().Str("email", email).Int("otp", otp).Msg("mail gateway not configured, otp logged")
	return nil
}
