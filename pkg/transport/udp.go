// Package transport реализует UDP endpoint, соединённый с одним сервером.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrTimeout: за отведённое время датаграмма не пришла.
	ErrTimeout = errors.New("receive timed out")

	// ErrIO: ошибка сокета при отправке или приёме.
	ErrIO = errors.New("transport I/O failure")
)

// DefaultTimeout: таймаут одного RecvTimeout по умолчанию.
const DefaultTimeout = 5 * time.Second

// Config параметры UDP endpoint.
type Config struct {
	LocalAddr  string
	RemoteAddr string
	// Timeout: таймаут RecvTimeout.
	Timeout time.Duration
	// SendRate ограничивает отправку пакетов в секунду, 0: без ограничения.
	SendRate  float64
	SendBurst int
}

// UDP: сокет, привязанный к локальному адресу и соединённый с RemoteAddr.
// Не предназначен для одновременного использования из нескольких горутин.
type UDP struct {
	conn    *net.UDPConn
	timeout time.Duration
	limiter *rate.Limiter
}

// Dial привязывает сокет и соединяет его с сервером.
func Dial(ctx context.Context, cfg Config) (*UDP, error) {
	local, err := net.ResolveUDPAddr("udp4", cfg.LocalAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve local address: %w", err)
	}

	dialer := &net.Dialer{LocalAddr: local}
	c, err := dialer.DialContext(ctx, "udp4", cfg.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RemoteAddr, err)
	}

	u := &UDP{
		conn:    c.(*net.UDPConn),
		timeout: cfg.Timeout,
	}
	if u.timeout <= 0 {
		u.timeout = DefaultTimeout
	}
	if cfg.SendRate > 0 {
		burst := max(cfg.SendBurst, 1)
		u.limiter = rate.NewLimiter(rate.Limit(cfg.SendRate), burst)
	}

	slog.Debug("transport: socket ready",
		"local", u.conn.LocalAddr(),
		"remote", u.conn.RemoteAddr(),
		"timeout", u.timeout,
	)

	return u, nil
}

// LocalAddr возвращает фактический локальный адрес.
func (u *UDP) LocalAddr() net.Addr { return u.conn.LocalAddr() }

// RemoteAddr возвращает адрес сервера.
func (u *UDP) RemoteAddr() net.Addr { return u.conn.RemoteAddr() }

// Send отправляет одну датаграмму.
func (u *UDP) Send(ctx context.Context, b []byte) error {
	if u.limiter != nil {
		if err := u.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("send rate limit: %w", err)
		}
	}

	if _, err := u.conn.Write(b); err != nil {
		return fmt.Errorf("%w: send: %w", ErrIO, err)
	}
	return nil
}

// Recv блокируется до прихода датаграммы или отмены ctx.
func (u *UDP) Recv(ctx context.Context, b []byte) (int, error) {
	return u.recv(ctx, b, time.Time{})
}

// RecvTimeout как Recv, но не дольше настроенного таймаута.
// Истечение таймаута: ErrTimeout, ошибка сокета: ErrIO.
func (u *UDP) RecvTimeout(ctx context.Context, b []byte) (int, error) {
	return u.recv(ctx, b, time.Now().Add(u.timeout))
}

func (u *UDP) recv(ctx context.Context, b []byte, deadline time.Time) (int, error) {
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := u.conn.SetReadDeadline(deadline); err != nil {
		return 0, fmt.Errorf("%w: set deadline: %w", ErrIO, err)
	}

	// Отмена ctx прерывает блокирующее чтение
	stop := context.AfterFunc(ctx, func() {
		_ = u.conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	n, err := u.conn.Read(b)
	if err == nil {
		return n, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return 0, fmt.Errorf("%w after %s", ErrTimeout, u.timeout)
	}
	return 0, fmt.Errorf("%w: receive: %w", ErrIO, err)
}

// Close закрывает сокет.
func (u *UDP) Close() error {
	return u.conn.Close()
}
