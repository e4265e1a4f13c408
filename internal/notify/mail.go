package notify

import (
	"context"

	"gopkg.in/gomail.v2"
)

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends HTML email through an SMTP relay.
type SMTPMailer struct {
	from   string
	dialer mailSender
}

func NewSMTPMailer(host string, port int, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{from: from, dialer: gomail.NewDialer(host, port, user, pass)}
}

func (m *SMTPMailer) message(to, subject, html string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)
	return msg
}

// Send delivers the message.  gomail has no context support, so the send
// runs in its own goroutine and Send returns when ctx ends first.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	msg := m.message(to, subject, html)
	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(msg) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
