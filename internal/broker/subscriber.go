package broker

import (
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Subscriber управляет подпиской на события.
type Subscriber struct {
	sub *nats.Subscription
}

// NewSubscriber подписывается на события пользователя user.
// user == "*": события всех пользователей.
func NewSubscriber(broker *Broker, prefix, user string, handler func(Record)) (*Subscriber, error) {
	subject := prefix + ".*"
	if user != "*" {
		subject = Subject(prefix, user)
	}

	sub, err := broker.conn.Subscribe(subject, func(msg *nats.Msg) {
		r, err := UnmarshalRecord(msg.Data)
		if err != nil {
			slog.Warn("subscriber: skip malformed event", "subject", msg.Subject, "error", err)
			return
		}
		handler(r)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
	}

	slog.Info("subscriber: subscribed", "subject", subject)
	return &Subscriber{sub: sub}, nil
}

// Unsubscribe отписывается от subject.
func (s *Subscriber) Unsubscribe() error {
	return s.sub.Unsubscribe()
}
