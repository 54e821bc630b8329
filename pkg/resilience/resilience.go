// Package resilience реализует обёртки повтора над шагом, который либо
// завершается успешно, либо возвращает ошибку.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Forever: MaxRetries без ограничения.
const Forever = -1

// Step: один запуск шага.
type Step interface {
	Run(ctx context.Context) error
}

// StepFunc адаптирует функцию к Step.
type StepFunc func(ctx context.Context) error

// Run вызывает f.
func (f StepFunc) Run(ctx context.Context) error { return f(ctx) }

// Retry перезапускает Step после неудачи через Delay.
// MaxRetries: число повторов после первой попытки, Forever: без ограничения.
type Retry struct {
	Step       Step
	MaxRetries int
	Delay      time.Duration
	// OnRetry вызывается перед ожиданием очередного повтора. Опционально.
	OnRetry func(retry int, err error)
}

// Run выполняет Step до первого успеха или исчерпания повторов.
// Возвращает последнюю ошибку шага.
func (r *Retry) Run(ctx context.Context) error {
	for retries := 0; ; retries++ {
		err := r.Step.Run(ctx)
		if err == nil {
			return nil
		}

		// Отмена контекста не повторяется
		if ctx.Err() != nil {
			return err
		}

		if r.MaxRetries != Forever && retries >= r.MaxRetries {
			slog.Error("resilience: retries exhausted", "retries", retries, "error", err)
			return err
		}

		slog.Warn("resilience: step failed, retrying", "retry", retries+1, "delay", r.Delay, "error", err)
		if r.OnRetry != nil {
			r.OnRetry(retries+1, err)
		}

		if sleepErr := Sleep(ctx, r.Delay); sleepErr != nil {
			return errors.Join(err, sleepErr)
		}
	}
}

// Repeat выполняет Step бесконечно с паузой Delay между успешными раундами.
// Первая ошибка возвращается сразу, повтор: забота внешнего Retry.
type Repeat struct {
	Step  Step
	Delay time.Duration
}

// Run возвращает только ошибку шага или контекста.
func (r *Repeat) Run(ctx context.Context) error {
	for {
		if err := r.Step.Run(ctx); err != nil {
			return err
		}
		if err := Sleep(ctx, r.Delay); err != nil {
			return err
		}
	}
}

// Sleep ждёт d или отмены контекста.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
