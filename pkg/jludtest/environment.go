package jludtest

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Environment: сервер аутентификации на UDP и NATS контейнер.
type Environment struct {
	// Server: сценарный сервер, через него проверяются принятые пакеты.
	Server *Server
	// ServerAddr: UDP адрес сервера.
	ServerAddr *net.UDPAddr
	// NATSUrl: пусто, если окружение запущено WithoutNATS.
	NATSUrl string

	nats *NATS
}

// Option: опция окружения.
type Option func(*envOptions)

type envOptions struct {
	server   []ServerOption
	withNATS bool
}

// WithServer передаёт опции сценарному серверу.
func WithServer(opts ...ServerOption) Option {
	return func(o *envOptions) { o.server = append(o.server, opts...) }
}

// WithoutNATS запускает окружение без контейнера.
func WithoutNATS() Option {
	return func(o *envOptions) { o.withNATS = false }
}

// Start поднимает окружение.
func Start(ctx context.Context, opts ...Option) (*Environment, error) {
	o := &envOptions{withNATS: true}
	for _, opt := range opts {
		opt(o)
	}

	env := &Environment{}

	// 1. NATS
	if o.withNATS {
		n, err := StartNATS(ctx)
		if err != nil {
			return nil, fmt.Errorf("start NATS: %w", err)
		}
		env.nats = n
		env.NATSUrl = n.URL()
	}

	// 2. Сервер аутентификации
	env.Server = NewServer(o.server...)
	addr, err := env.Server.Listen("127.0.0.1:0")
	if err != nil {
		env.nats.Terminate(ctx)
		return nil, fmt.Errorf("listen auth server: %w", err)
	}
	env.ServerAddr = addr

	return env, nil
}

// Close останавливает сервер и контейнер.
func (e *Environment) Close(ctx context.Context) error {
	var errs []error
	if e.Server != nil {
		if err := e.Server.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close auth server: %w", err))
		}
	}
	if err := e.nats.Terminate(ctx); err != nil {
		errs = append(errs, fmt.Errorf("terminate NATS: %w", err))
	}
	return errors.Join(errs...)
}
