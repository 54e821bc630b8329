package jludtest_test

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/jlud/pkg/jludtest"
)

func TestEnvironment_WithoutNATS(t *testing.T) {
	ctx := context.Background()

	env, err := jludtest.Start(ctx, jludtest.WithoutNATS())
	require.NoError(t, err)
	require.NotNil(t, env.ServerAddr)
	require.Empty(t, env.NATSUrl)

	require.NoError(t, env.Close(ctx))
}

func TestEnvironment_Start(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	env, err := jludtest.Start(ctx)
	require.NoError(t, err, "Start должен успешно завершиться")
	require.NotEmpty(t, env.NATSUrl, "NATSUrl должен быть заполнен")

	nc, err := nats.Connect(env.NATSUrl)
	require.NoError(t, err, "NATS должен принимать соединения")
	nc.Close()

	require.NoError(t, env.Close(ctx))
}
