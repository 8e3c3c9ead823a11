// Package relay forwards committed ledger events to a message broker.
//
// The relay is an export: publish failures are logged and dropped, and never
// affect the ledger.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mmynk/wageledger/internal/notify"
)

const defaultTimeout = 5 * time.Second

// Publisher sends one message under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// Subscriber is the source of committed events.
type Subscriber interface {
	Subscribe(employeeID string, fn func(notify.Event)) *notify.Subscription
}

// Relay publishes every event it receives.
type Relay struct {
	pub     Publisher
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Relay. A non-positive timeout selects the default of 5s.
func New(pub Publisher, timeout time.Duration, logger *slog.Logger) *Relay {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{pub: pub, timeout: timeout, logger: logger}
}

// Start subscribes the relay to every employee's events.
func (r *Relay) Start(src Subscriber) *notify.Subscription {
	return src.Subscribe("", r.Handle)
}

// RoutingKey is the topic an event is published under, e.g. "ledger.payment.applied".
func RoutingKey(ev notify.Event) string {
	return "ledger." + string(ev.Kind)
}

// Handle publishes ev and blocks for at most the relay timeout.
func (r *Relay) Handle(ev notify.Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		r.logger.Error("Failed to encode ledger event", "seq", ev.Seq, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	key := RoutingKey(ev)
	if err := r.pub.Publish(ctx, key, body); err != nil {
		r.logger.Error("Failed to relay ledger event",
			"seq", ev.Seq,
			"routing_key", key,
			"employee_id", ev.EmployeeID,
			"error", err,
		)
		return
	}
	r.logger.Debug("Relayed ledger event", "seq", ev.Seq, "routing_key", key)
}
