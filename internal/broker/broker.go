// Package broker публикует события сессии в NATS.
package broker

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// Broker управляет соединением с NATS.
type Broker struct {
	conn *nats.Conn
}

// Config конфигурация NATS.
type Config struct {
	URLs          []string
	Name          string
	ReconnectWait time.Duration
	MaxReconnects int
}

// New подключается к NATS.
func New(cfg Config) (*Broker, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("broker: NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("broker: NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}

	// NATS поддерживает URL через запятую
	url := nats.DefaultURL
	if len(cfg.URLs) > 0 {
		url = strings.Join(cfg.URLs, ",")
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	slog.Debug("broker: connected", "url", conn.ConnectedUrl())

	return &Broker{conn: conn}, nil
}

// Conn возвращает соединение NATS.
func (b *Broker) Conn() *nats.Conn {
	return b.conn
}

// Close дожидается отправки буферизованных событий и закрывает соединение.
func (b *Broker) Close() error {
	if err := b.conn.Drain(); err != nil {
		slog.Error("broker: drain failed", "error", err)
		return err
	}
	return nil
}

// Subject возвращает subject событий пользователя: <prefix>.<username>.
// Символы вне [A-Za-z0-9_-] заменяются на '_', чтобы имя не могло
// добавить токен или wildcard (*, >, .).
func Subject(prefix, username string) string {
	var b strings.Builder
	b.Grow(len(prefix) + 1 + len(username))
	b.WriteString(prefix)
	b.WriteByte('.')
	if username == "" {
		b.WriteByte('_')
	}
	for i := range len(username) {
		c := username[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-' {
			b.WriteByte(c)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
