// Package metrics экспортирует события машины аутентификации в Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/udisondev/jlud/pkg/auth"
)

const namespace = "jlud"

// Collector: auth.Observer, обновляющий метрики.
//
// Метрики:
//   - jlud_phase: текущее состояние машины (значение auth.Phase)
//   - jlud_logged_in: 1 в состоянии keep-alive, иначе 0
//   - jlud_phase_transitions_total{phase}: переходы по целевому состоянию
//   - jlud_challenge_attempts_total{result}: попытки challenge, result = ok|failed
//   - jlud_keep_alive_packets_total{packet}: подтверждённые keep-alive пакеты
//   - jlud_restarts_total: перезапуски сессии
//   - jlud_last_keep_alive_timestamp_seconds: время последнего подтверждённого keep-alive
type Collector struct {
	phase         prometheus.Gauge
	loggedIn      prometheus.Gauge
	transitions   *prometheus.CounterVec
	challenges    *prometheus.CounterVec
	keepAlives    *prometheus.CounterVec
	restarts      prometheus.Counter
	lastKeepAlive prometheus.Gauge
}

var _ auth.Observer = (*Collector)(nil)

// NewCollector регистрирует метрики в reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		phase: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phase",
			Help:      "Current authentication phase (0 idle, 1 challenging, 2 logging in, 3 keep-alive, 4 failed)",
		}),
		loggedIn: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "logged_in",
			Help:      "1 while the session is in keep-alive",
		}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Phase transitions by target phase",
		}, []string{"phase"}),
		challenges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenge_attempts_total",
			Help:      "Challenge attempts by result",
		}, []string{"result"}),
		keepAlives: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keep_alive_packets_total",
			Help:      "Acknowledged keep-alive packets by kind",
		}, []string{"packet"}),
		restarts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restarts_total",
			Help:      "Session restarts after a failed attempt",
		}),
		lastKeepAlive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_keep_alive_timestamp_seconds",
			Help:      "Unix time of the last acknowledged keep-alive packet",
		}),
	}
}

// OnEvent обновляет метрики по событию.
func (c *Collector) OnEvent(e auth.Event) {
	switch e.Kind {
	case auth.EventPhase:
		c.phase.Set(float64(e.Phase))
		c.transitions.WithLabelValues(e.Phase.String()).Inc()
		if e.Phase == auth.PhaseKeepAlive {
			c.loggedIn.Set(1)
		} else {
			c.loggedIn.Set(0)
		}
	case auth.EventChallengeAttempt:
		result := "ok"
		if e.Err != nil {
			result = "failed"
		}
		c.challenges.WithLabelValues(result).Inc()
	case auth.EventKeepAlive:
		c.keepAlives.WithLabelValues(e.Packet).Inc()
		c.lastKeepAlive.Set(float64(e.Time.UnixNano()) / float64(time.Second))
	case auth.EventRestart:
		c.restarts.Inc()
	}
}

// Serve отдаёт метрики g по HTTP на addr до отмены ctx.
func Serve(ctx context.Context, addr, path string, g prometheus.Gatherer) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serve(ctx, lis, path, g)
}

func serve(ctx context.Context, lis net.Listener, path string, g prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	slog.Info("metrics: serving", "addr", lis.Addr().String(), "path", path)
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
