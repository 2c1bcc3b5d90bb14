package services

import (
	"context"
	"fmt"
	"net"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"todo-app/backend/internal/config"
)

// Mailer はパスワードリセットのリンクを送ります。
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

// SMTPMailer は net/smtp でメールを送ります。Host が空の場合は送信せずログだけ出します。
type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger logrus.FieldLogger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg config.SMTPConfig, logger logrus.FieldLogger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger, send: smtp.SendMail}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	if m.cfg.Host == "" {
		m.logger.WithField("to", to).Info("SMTP is not configured; skipping password reset email")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: パスワードリセット\r\n\r\n以下のURLからパスワードを再設定してください。\r\n%s\r\n",
		m.cfg.From, to, resetURL,
	))

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}
