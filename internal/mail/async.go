package mail

import (
	"context"
	"sync"
	"time"

	"storefront/internal/metrics"

	"github.com/sirupsen/logrus"
)

const defaultSendTimeout = 30 * time.Second

// AsyncDispatcher sends each message on its own goroutine so callers return
// before the relay answers.
type AsyncDispatcher struct {
	sender  Sender
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncDispatcher wraps a synchronous sender.
func NewAsyncDispatcher(sender Sender, timeout time.Duration) *AsyncDispatcher {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &AsyncDispatcher{sender: sender, timeout: timeout}
}

// Dispatch starts delivery and returns immediately. The request context is not
// used for delivery since it ends with the response.
func (d *AsyncDispatcher) Dispatch(_ context.Context, msg Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.sender.Send(ctx, msg); err != nil {
			metrics.MailDispatchFailures.Inc()
			logrus.WithError(err).WithField("subject", msg.Subject).Error("failed to send email")
		}
	}()
}

// Wait blocks until in-flight deliveries finish.
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}
