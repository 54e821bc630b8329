package jludtest

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// NATS: запущенный NATS контейнер.
type NATS struct {
	container testcontainers.Container
	url       string
}

// StartNATS запускает NATS контейнер и ждёт открытия клиентского порта.
func StartNATS(ctx context.Context) (*NATS, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:latest",
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForListeningPort("4222/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start NATS container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		terminate(ctx, container)
		return nil, fmt.Errorf("get NATS host: %w", err)
	}
	port, err := container.MappedPort(ctx, "4222")
	if err != nil {
		terminate(ctx, container)
		return nil, fmt.Errorf("get NATS port: %w", err)
	}

	return &NATS{
		container: container,
		url:       fmt.Sprintf("nats://%s:%s", host, port.Port()),
	}, nil
}

// URL возвращает адрес для nats.Connect.
func (n *NATS) URL() string { return n.url }

// Terminate останавливает контейнер.
func (n *NATS) Terminate(ctx context.Context) error {
	if n == nil || n.container == nil {
		return nil
	}
	return n.container.Terminate(ctx)
}

func terminate(ctx context.Context, c testcontainers.Container) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_ = c.Terminate(ctx)
}
