// Package notify delivers booking notifications over three independent
// channels: a RabbitMQ queue for booking snapshots, an SNS topic for
// admin alerts and SMTP for student confirmations.  Every channel is
// optional and guarded by its own circuit breaker.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/studentacc/accommodation-booking/internal/config"
	"github.com/studentacc/accommodation-booking/internal/queue"
)

// ErrChannelDisabled is returned when the channel has no configuration.
var ErrChannelDisabled = errors.New("notification channel disabled")

// Publisher sends a message body to the booking queue.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// Alerter broadcasts an admin alert.
type Alerter interface {
	Alert(ctx context.Context, subject, body string) error
}

// Mailer sends one HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Gateway fans notifications out to the configured channels.  Each call
// makes a single attempt bounded by the gateway timeout.
type Gateway struct {
	queue   Publisher
	alerts  Alerter
	mail    Mailer
	timeout time.Duration
	log     *logrus.Logger

	queueCB *gobreaker.CircuitBreaker
	alertCB *gobreaker.CircuitBreaker
	mailCB  *gobreaker.CircuitBreaker
}

// NewGateway wires the given channels.  A nil channel is disabled.
func NewGateway(q Publisher, a Alerter, m Mailer, timeout, breakerTTL time.Duration, log *logrus.Logger) *Gateway {
	return &Gateway{
		queue:   q,
		alerts:  a,
		mail:    m,
		timeout: timeout,
		log:     log,
		queueCB: circuitBreaker("queue", breakerTTL, log),
		alertCB: circuitBreaker("alert", breakerTTL, log),
		mailCB:  circuitBreaker("email", breakerTTL, log),
	}
}

// FromConfig builds a Gateway from environment settings.  Channels whose
// essential setting is empty stay disabled.
func FromConfig(ctx context.Context, cfg config.NotifyConfig, log *logrus.Logger) (*Gateway, error) {
	var (
		q Publisher
		a Alerter
		m Mailer
	)
	if cfg.AMQPURL != "" {
		q = &RabbitPublisher{URL: cfg.AMQPURL, Queue: cfg.QueueName}
	}
	if cfg.SNSTopic != "" {
		sa, err := NewSNSAlerter(ctx, cfg.AWSRegion, cfg.SNSTopic)
		if err != nil {
			return nil, fmt.Errorf("sns: %w", err)
		}
		a = sa
	}
	if cfg.SMTPHost != "" {
		m = NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	}
	log.WithFields(logrus.Fields{
		"queue": q != nil,
		"alert": a != nil,
		"email": m != nil,
	}).Info("notification channels configured")
	return NewGateway(q, a, m, cfg.Timeout, cfg.BreakerTTL, log), nil
}

func circuitBreaker(name string, ttl time.Duration, log *logrus.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     ttl,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 2
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"channel": name, "from": from.String(), "to": to.String()}).
				Warn("notification breaker state changed")
		},
	})
}

func (g *Gateway) run(ctx context.Context, cb *gobreaker.CircuitBreaker, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	_, err := cb.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	return err
}

// Enqueue publishes a booking snapshot as persistent JSON.
func (g *Gateway) Enqueue(ctx context.Context, s queue.BookingSnapshot) error {
	if g.queue == nil {
		return ErrChannelDisabled
	}
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return g.run(ctx, g.queueCB, func(ctx context.Context) error {
		return g.queue.Publish(ctx, body)
	})
}

// Alert sends an admin alert.
func (g *Gateway) Alert(ctx context.Context, subject, body string) error {
	if g.alerts == nil {
		return ErrChannelDisabled
	}
	return g.run(ctx, g.alertCB, func(ctx context.Context) error {
		return g.alerts.Alert(ctx, subject, body)
	})
}

// NotifyStudent emails a student.
func (g *Gateway) NotifyStudent(ctx context.Context, address, subject, html string) error {
	if g.mail == nil {
		return ErrChannelDisabled
	}
	if address == "" {
		return errors.New("no recipient address")
	}
	return g.run(ctx, g.mailCB, func(ctx context.Context) error {
		return g.mail.Send(ctx, address, subject, html)
	})
}
