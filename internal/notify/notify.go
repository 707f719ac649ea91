// Package notify relays support tickets and announcements to a downstream
// mail bridge. The API never sends mail itself.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fueltrack/internal/metrics"
)

type Kind string

const (
	KindSupport      Kind = "support"
	KindAnnouncement Kind = "announcements"
)

// Message is the JSON payload handed to the mail bridge.
type Message struct {
	Kind      Kind      `json:"kind"`
	Reference string    `json:"reference,omitempty"`
	From      string    `json:"from,omitempty"`
	To        []string  `json:"to,omitempty"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier delivers a message to the relay.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier only logs messages. Used when no broker is configured.
type LogNotifier struct {
	Logger logrus.FieldLogger
}

func (n LogNotifier) Notify(_ context.Context, msg Message) error {
	n.Logger.WithFields(logrus.Fields{
		"kind":       msg.Kind,
		"reference":  msg.Reference,
		"recipients": len(msg.To),
		"subject":    msg.Subject,
	}).Info("notification not relayed: no broker configured")
	return nil
}

// Async hands messages to next on a background goroutine so callers never
// wait on the broker. Each delivery is bounded by timeout.
type Async struct {
	next    Notifier
	timeout time.Duration
	logger  logrus.FieldLogger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

func NewAsync(next Notifier, timeout time.Duration, logger logrus.FieldLogger, m *metrics.Metrics) *Async {
	return &Async{next: next, timeout: timeout, logger: logger, metrics: m}
}

// Notify schedules delivery and returns immediately.
func (a *Async) Notify(_ context.Context, msg Message) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		err := a.next.Notify(ctx, msg)
		a.metrics.NotificationSent(string(msg.Kind), err)
		if err != nil {
			a.logger.WithError(err).WithFields(logrus.Fields{
				"kind":      msg.Kind,
				"reference": msg.Reference,
			}).Warn("notification delivery failed")
		}
	}()
	return nil
}

// Wait blocks until scheduled deliveries finish or ctx is done.
func (a *Async) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
