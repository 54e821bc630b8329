// Package jludtest предоставляет тестовое окружение для jlud.
//
// Server: сценарный сервер аутентификации: отвечает на challenge, login
// и keep-alive заранее заданными полями, умеет отвергать login и молчать.
// Работает в памяти через Pipe или поверх UDP через Listen.
//
// Environment дополнительно поднимает NATS контейнер через testcontainers
// для проверки публикации событий:
//
//	func TestIntegration(t *testing.T) {
//	    ctx := context.Background()
//
//	    env, err := jludtest.Start(ctx, jludtest.WithServer(jludtest.WithAccount("alice", "secret")))
//	    require.NoError(t, err)
//	    defer env.Close(ctx)
//
//	    conn, _ := transport.Dial(ctx, transport.Config{RemoteAddr: env.ServerAddr.String()})
//	    // ...
//	}
package jludtest
