package auth

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/udisondev/jlud/pkg/protocol"
	"github.com/udisondev/jlud/pkg/resilience"
)

// Константы по умолчанию.
const (
	DefaultKeepAliveInterval = 20 * time.Second
	DefaultRetryDelay        = 5 * time.Second
	DefaultHostName          = "unknown"
)

type options struct {
	hostName          string
	resolveMAC        func() ([6]byte, error)
	keepAliveInterval time.Duration
	maxRetries        int
	retryDelay        time.Duration
	observers         []Observer
	noise             func() [protocol.NoiseSize]byte
	logger            *slog.Logger
}

func defaultOptions() *options {
	return &options{
		hostName:          DefaultHostName,
		keepAliveInterval: DefaultKeepAliveInterval,
		maxRetries:        resilience.Forever,
		retryDelay:        DefaultRetryDelay,
		noise:             randomNoise,
	}
}

// Option конфигурирует Machine.
type Option func(*options)

// WithHostName устанавливает имя хоста для login пакета.
func WithHostName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.hostName = name
		}
	}
}

// WithMACResolver задаёт источник MAC адреса для пользователей без MAC.
// Вызывается на шаге login, его ошибка завершает попытку.
func WithMACResolver(resolve func() ([6]byte, error)) Option {
	return func(o *options) {
		o.resolveMAC = resolve
	}
}

// WithKeepAliveInterval устанавливает паузу между раундами keep-alive.
func WithKeepAliveInterval(d time.Duration) Option {
	return func(o *options) {
		o.keepAliveInterval = d
	}
}

// WithRetry устанавливает число перезапусков и паузу между ними.
// maxRetries == resilience.Forever: перезапуск без ограничения.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(o *options) {
		o.maxRetries = maxRetries
		o.retryDelay = delay
	}
}

// WithObserver добавляет наблюдателя событий. Можно вызывать несколько раз.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observers = append(o.observers, obs)
	}
}

// WithNoise заменяет источник случайных байт пакетов.
func WithNoise(noise func() [protocol.NoiseSize]byte) Option {
	return func(o *options) {
		o.noise = noise
	}
}

// WithLogger устанавливает логгер. По умолчанию slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func randomNoise() [protocol.NoiseSize]byte {
	v := rand.Uint32()
	return [protocol.NoiseSize]byte{byte(v), byte(v >> 8)}
}
