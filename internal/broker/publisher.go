package broker

import (
	"fmt"
	"log/slog"

	"github.com/udisondev/jlud/pkg/auth"
)

// Publisher публикует события машины аутентификации одного пользователя.
// Реализует auth.Observer.
type Publisher struct {
	broker  *Broker
	user    string
	subject string
}

var _ auth.Observer = (*Publisher)(nil)

// NewPublisher создаёт издателя событий пользователя user в <prefix>.<user>.
func NewPublisher(broker *Broker, prefix, user string) *Publisher {
	return &Publisher{
		broker:  broker,
		user:    user,
		subject: Subject(prefix, user),
	}
}

// Subject возвращает subject публикации.
func (p *Publisher) Subject() string { return p.subject }

// Publish кодирует и публикует событие.
func (p *Publisher) Publish(e auth.Event) error {
	data, err := newRecord(p.user, e).Marshal()
	if err != nil {
		return err
	}
	if err := p.broker.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}
	return nil
}

// OnEvent публикует событие. Ошибка публикации только логируется:
// недоступность NATS не должна влиять на сессию.
func (p *Publisher) OnEvent(e auth.Event) {
	if err := p.Publish(e); err != nil {
		slog.Warn("broker: publish event failed", "subject", p.subject, "kind", e.Kind, "error", err)
	}
}
