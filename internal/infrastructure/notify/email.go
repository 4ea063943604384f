package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/ssavin/vetsystem-sub004/internal/core/domain"
)

// SMTPConfig configures the email channel.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Email sends notifications over SMTP.
type Email struct {
	from   string
	dialer mailDialer
}

func NewEmail(cfg SMTPConfig) *Email {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.TLSConfig = &tls.Config{
		ServerName: cfg.Host,
		MinVersion: tls.VersionTLS12,
	}
	return &Email{from: cfg.From, dialer: d}
}

func (e *Email) Send(ctx context.Context, n domain.Notification) error {
	if e.from == "" {
		return errors.New("smtp sender address is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.dialer.DialAndSend(e.message(n)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (e *Email) message(n domain.Notification) *gomail.Message {
	m := gomail.NewMessage(
		gomail.SetCharset("UTF-8"),
		gomail.SetEncoding(gomail.Base64),
	)
	m.SetAddressHeader("From", e.from, "VetSystem")
	m.SetHeader("To", n.Recipients...)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", n.Body)
	return m
}
