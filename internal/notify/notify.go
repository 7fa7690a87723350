package notify

import (
	"context"
	"log/slog"
)

// Dispatcher delivers a one-time code to a destination. Delivery is
// fire-and-forget: callers log failures and move on, no retry.
type Dispatcher interface {
	Send(ctx context.Context, destination, code string) error
}

// LogDispatcher is a stand-in delivery backend that writes the
// outgoing message to the log. Real email/SMS gateways slot in behind
// the same interface.
type LogDispatcher struct {
	channel string
}

// NewLogDispatcher creates a LogDispatcher tagged with a channel name
// ("email" or "sms").
func NewLogDispatcher(channel string) *LogDispatcher {
	return &LogDispatcher{channel: channel}
}

// Send logs the code delivery. It never fails.
func (d *LogDispatcher) Send(_ context.Context, destination, code string) error {
	slog.Info("dispatch verification code",
		"channel", d.channel,
		"destination", destination,
		"code_len", len(code),
	)
	return nil
}
