package smtp

import (
	"context"
	"fmt"

	"github.com/securescan-api/internal/config"
	"github.com/securescan-api/internal/domain"
	"gopkg.in/gomail.v2"
)

// Mailer delivers OTP emails over SMTP.
type Mailer struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

// NewMailer builds a mailer from the SMTP_* settings. Port 465 uses implicit TLS;
// other ports upgrade with STARTTLS when the server offers it.
func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		dialer:   gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:     cfg.SMTPFrom,
		fromName: cfg.SMTPFromName,
	}
}

// Deliver renders the OTP email and sends it to to.
func (m *Mailer) Deliver(ctx context.Context, to string, d domain.Delivery) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := m.message(to, d)
	if err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}
	return nil
}

// Ping dials and authenticates once to check the SMTP settings.
func (m *Mailer) Ping() error {
	s, err := m.dialer.Dial()
	if err != nil {
		return err
	}
	return s.Close()
}

func (m *Mailer) message(to string, d domain.Delivery) (*gomail.Message, error) {
	body, err := renderOTPEmail(d)
	if err != nil {
		return nil, err
	}
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", otpSubject)
	msg.SetBody("text/plain", body.Text)
	msg.AddAlternative("text/html", body.HTML)
	return msg, nil
}
