package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/udisondev/jlud/internal/appdir"
	"github.com/udisondev/jlud/internal/broker"
	"github.com/udisondev/jlud/internal/metrics"
	"github.com/udisondev/jlud/internal/netif"
	"github.com/udisondev/jlud/pkg/auth"
	"github.com/udisondev/jlud/pkg/config"
	"github.com/udisondev/jlud/pkg/credentials"
	"github.com/udisondev/jlud/pkg/transport"
)

type authFlags struct {
	configPath string
	userFile   string
	logLevel   string
}

func authCmd() *cobra.Command {
	var f authFlags

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate and keep the session alive",
		Long: `Authenticate and keep the session alive until interrupted.

Without --file the credentials file from the config is used. If it does not
exist and user.save_user is enabled, username and password are asked
interactively and saved.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			return runAuth(ctx, f, p)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "path to config file (default: XDG config dir)")
	cmd.Flags().StringVarP(&f.userFile, "file", "f", "", "credentials file, must exist")
	cmd.Flags().StringVarP(&f.logLevel, "log-level", "l", "", "debug, info, warn or error (overrides config)")

	return cmd
}

func runAuth(ctx context.Context, f authFlags, p *prompter) error {
	// 1. Конфигурация и логирование
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	closeLog := setupLogging(cfg.Log)
	defer closeLog()

	slog.Info("jlud starting",
		"version", version,
		"remote", cfg.Common.RemoteAddr,
		"local", cfg.Common.LocalAddr,
	)

	// 2. Учётные данные
	resolveMAC := netif.Resolver(cfg.Interface.Name)
	user, err := loadUser(cfg, f.userFile, p, resolveMAC)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	// 3. Один UDP сокет на всё время работы
	conn, err := transport.Dial(ctx, transport.Config{
		LocalAddr:  cfg.Common.LocalAddr,
		RemoteAddr: cfg.Common.RemoteAddr,
		Timeout:    cfg.Common.Timeout.Duration(),
		SendRate:   cfg.Limits.SendRate,
		SendBurst:  cfg.Limits.SendBurst,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	opts := []auth.Option{
		auth.WithHostName(hostName(cfg)),
		auth.WithMACResolver(resolveMAC),
		auth.WithKeepAliveInterval(cfg.Common.KeepAliveInterval.Duration()),
		auth.WithRetry(cfg.Common.Retry, cfg.Common.RetryInterval.Duration()),
	}

	// 4. Наблюдатели
	if cfg.Metrics.Enabled() {
		reg := prometheus.NewRegistry()
		opts = append(opts, auth.WithObserver(metrics.NewCollector(reg)))
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, cfg.Metrics.Path, reg); err != nil {
				slog.Error("metrics server failed", "addr", cfg.Metrics.Addr, "error", err)
			}
		}()
	}

	if cfg.Events.Enabled() {
		b, err := broker.New(broker.Config{
			URLs:          cfg.Events.NATSURLs,
			Name:          "jlud",
			ReconnectWait: cfg.Events.ReconnectWait.Duration(),
			MaxReconnects: cfg.Events.MaxReconnects,
		})
		if err != nil {
			return err
		}
		defer b.Close()

		pub := broker.NewPublisher(b, cfg.Events.SubjectPrefix, user.Username)
		opts = append(opts, auth.WithObserver(pub))
		slog.Info("publishing session events", "subject", pub.Subject())
	}

	// 5. Сессия до отмены или исчерпания повторов
	err = auth.New(conn, *user, opts...).Run(ctx)
	if ctx.Err() != nil {
		slog.Info("jlud stopped")
		return nil
	}
	return err
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if err := appdir.Init(); err != nil {
		return nil, fmt.Errorf("init app directory: %w", err)
	}
	return config.LoadFromAppDir()
}

func hostName(cfg *config.Config) string {
	if cfg.Common.HostName != "" {
		return cfg.Common.HostName
	}
	return netif.HostName()
}

// loadUser читает учётные данные. Явно указанный файл обязан существовать;
// файл из конфига при его отсутствии и user.save_user создаётся по ответам
// пользователя.
func loadUser(cfg *config.Config, explicit string, p *prompter, resolveMAC func() ([6]byte, error)) (*credentials.User, error) {
	if explicit != "" {
		return credentials.Load(explicit)
	}

	u, err := credentials.Load(cfg.User.File)
	if err == nil || !errors.Is(err, os.ErrNotExist) || !cfg.User.SaveUser {
		return u, err
	}

	slog.Info("credentials file not found, asking", "file", cfg.User.File)
	username, err := p.line("Username")
	if err != nil {
		return nil, err
	}
	password, err := p.password("Password")
	if err != nil {
		return nil, err
	}

	u = &credentials.User{Username: username, Password: password}
	if mac, err := resolveMAC(); err != nil {
		slog.Warn("MAC not resolved, will retry at login", "error", err)
	} else {
		u.MAC = mac
	}

	if err := credentials.Save(cfg.User.File, u); err != nil {
		return nil, err
	}
	slog.Info("credentials saved", "file", cfg.User.File)
	return u, nil
}
