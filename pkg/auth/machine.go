// Package auth реализует машину аутентификации: challenge, login и
// бесконечный keep-alive поверх одного UDP соединения.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/jlud/pkg/credentials"
	"github.com/udisondev/jlud/pkg/protocol"
	"github.com/udisondev/jlud/pkg/resilience"
	"github.com/udisondev/jlud/pkg/session"
)

// ChallengeAttempts: число попыток challenge в одной сессии.
const ChallengeAttempts = 5

var (
	ErrChallengeFailed = errors.New("challenge failed")
	ErrNotChallenged   = errors.New("login before challenge")
	ErrNotLoggedIn     = errors.New("keep-alive before login")
	ErrNoMAC           = errors.New("user has no MAC and no resolver configured")
)

// Conn: транспорт машины. *transport.UDP удовлетворяет интерфейсу.
type Conn interface {
	Send(ctx context.Context, b []byte) error
	RecvTimeout(ctx context.Context, b []byte) (int, error)
}

// Machine ведёт одну учётную запись через challenge, login и keep-alive.
// Не безопасна для конкурентного использования.
type Machine struct {
	conn  Conn
	user  credentials.User
	opts  *options
	base  *slog.Logger
	log   *slog.Logger
	state session.State
	phase Phase
	buf   [protocol.RecvBufSize]byte
}

// New создаёт машину в состоянии PhaseIdle.
func New(conn Conn, user credentials.User, opts ...Option) *Machine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	base := o.logger.With("user", user.Username)
	return &Machine{
		conn: conn,
		user: user,
		opts: o,
		base: base,
		log:  base,
	}
}

// Phase возвращает текущее состояние.
func (m *Machine) Phase() Phase { return m.phase }

// State возвращает копию состояния сессии.
func (m *Machine) State() session.State { return m.state }

// Run выполняет Session с перезапуском по политике WithRetry.
// Возвращает nil только если Session завершилась без ошибки, чего при
// бесконечном keep-alive не бывает; обычный выход: ошибка контекста.
func (m *Machine) Run(ctx context.Context) error {
	retry := &resilience.Retry{
		Step:       resilience.StepFunc(m.Session),
		MaxRetries: m.opts.maxRetries,
		Delay:      m.opts.retryDelay,
		OnRetry: func(retry int, err error) {
			m.emit(Event{Kind: EventRestart, Attempt: retry, Err: err})
		},
	}
	return retry.Run(ctx)
}

// Session проходит challenge и login со сброшенным состоянием,
// затем повторяет раунды keep-alive до первой ошибки.
func (m *Machine) Session(ctx context.Context) error {
	m.state.Reset()
	m.log = m.base.With("run", uuid.NewString())
	m.setPhase(PhaseIdle)

	err := m.session(ctx)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		m.log.Info("auth: session stopped", "phase", m.phase)
		m.transition(PhaseFailed, err)
	default:
		m.log.Error("auth: session failed", "phase", m.phase, "error", err)
		m.transition(PhaseFailed, err)
	}
	return err
}

func (m *Machine) session(ctx context.Context) error {
	// 1. Получаем salt и client IP
	if err := m.Challenge(ctx); err != nil {
		return err
	}

	// 2. Login
	if err := m.Login(ctx); err != nil {
		return err
	}

	// 3. Keep-alive до первой ошибки
	repeat := &resilience.Repeat{
		Step:  resilience.StepFunc(m.KeepAlive),
		Delay: m.opts.keepAliveInterval,
	}
	return repeat.Run(ctx)
}

// Challenge отправляет challenge до ChallengeAttempts раз.
// Любая ошибка отдельной попытки не фатальна, после последней
// возвращается ErrChallengeFailed.
func (m *Machine) Challenge(ctx context.Context) error {
	m.setPhase(PhaseChallenging)

	var lastErr error
	for attempt := range ChallengeAttempts {
		resp, err := m.challengeOnce(ctx, byte(attempt))
		m.emit(Event{Kind: EventChallengeAttempt, Attempt: attempt + 1, Err: err})
		if err == nil {
			m.state.ApplyChallenge(resp)
			m.log.Info("auth: challenge accepted",
				"attempt", attempt+1,
				"client_ip", fmt.Sprintf("%d.%d.%d.%d", resp.ClientIP[0], resp.ClientIP[1], resp.ClientIP[2], resp.ClientIP[3]),
			)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		m.log.Warn("auth: challenge attempt failed", "attempt", attempt+1, "error", err)
		lastErr = err
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrChallengeFailed, ChallengeAttempts, lastErr)
}

func (m *Machine) challengeOnce(ctx context.Context, attempt byte) (*protocol.ChallengeResponse, error) {
	req := protocol.BuildChallenge(attempt, m.opts.noise())
	resp, err := m.exchange(ctx, req[:])
	if err != nil {
		return nil, err
	}
	return protocol.ParseChallengeResponse(resp)
}

// Login отправляет login пакет один раз. Любая ошибка фатальна для сессии.
func (m *Machine) Login(ctx context.Context) error {
	if !m.state.Challenged() {
		return ErrNotChallenged
	}
	m.setPhase(PhaseLoggingIn)

	mac, err := m.mac()
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	l := protocol.Login{
		Username: m.user.Username,
		Password: m.user.Password,
		MAC:      mac,
		HostName: m.opts.hostName,
		Salt:     m.state.Salt,
		ClientIP: m.state.ClientIP,
		Noise:    m.opts.noise(),
	}
	pkt, md5a, err := l.Encode()
	if err != nil {
		return err
	}

	resp, err := m.exchange(ctx, pkt)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	tail, err := protocol.ParseLoginResponse(resp)
	if err != nil {
		return err
	}

	m.state.ApplyLogin(md5a, tail)
	m.log.Info("auth: logged in", "host", m.opts.hostName)
	return nil
}

func (m *Machine) mac() ([protocol.MACSize]byte, error) {
	if m.user.HasMAC() {
		return m.user.MAC, nil
	}
	if m.opts.resolveMAC == nil {
		return [protocol.MACSize]byte{}, ErrNoMAC
	}
	mac, err := m.opts.resolveMAC()
	if err != nil {
		return mac, fmt.Errorf("resolve mac: %w", err)
	}
	m.log.Debug("auth: resolved mac", "mac", credentials.FormatMAC(mac))
	return mac, nil
}

// KeepAlive выполняет один раунд: 38-байтовый пакет, при необходимости
// extra, затем first и second. Ошибка любого пакета фатальна для сессии.
func (m *Machine) KeepAlive(ctx context.Context) error {
	if !m.state.LoggedIn() {
		return ErrNotLoggedIn
	}
	m.setPhase(PhaseKeepAlive)

	// 1. 38-байтовый пакет обновляет версию
	ka38 := protocol.BuildKeepAlive38(m.state.MD5A, m.state.Tail, m.opts.noise())
	resp, err := m.exchange(ctx, ka38[:])
	if err != nil {
		return fmt.Errorf("keep-alive 38: %w", err)
	}
	version, err := protocol.ParseKeepAlive38Response(resp)
	if err != nil {
		return err
	}
	m.state.KeepAliveVersion = version
	m.emit(Event{Kind: EventKeepAlive, Packet: PacketKeepAlive38})

	// 2. Extra раз в ExtraInterval пакетов
	if m.state.ExtraDue() {
		if _, err := m.alive40(ctx, protocol.AliveExtra); err != nil {
			return err
		}
	}

	// 3. First обновляет tail_2
	resp, err = m.alive40(ctx, protocol.AliveFirst)
	if err != nil {
		return err
	}
	tail2, err := protocol.ParseKeepAlive40Response(resp)
	if err != nil {
		return err
	}
	m.state.Tail2 = tail2

	// 4. Second
	if _, err := m.alive40(ctx, protocol.AliveSecond); err != nil {
		return err
	}

	m.log.Debug("auth: keep-alive round done", "sequence", m.state.Sequence)
	return nil
}

func (m *Machine) alive40(ctx context.Context, kind protocol.AliveKind) ([]byte, error) {
	k := protocol.KeepAlive40{
		Kind:     kind,
		Sequence: m.state.NextSequence(),
		Version:  m.state.KeepAliveVersion,
		Tail2:    m.state.Tail2,
		ClientIP: m.state.ClientIP,
		Noise:    m.opts.noise(),
	}
	pkt := k.Encode()

	resp, err := m.exchange(ctx, pkt[:])
	if err != nil {
		return nil, fmt.Errorf("keep-alive %s: %w", kind, err)
	}
	m.emit(Event{Kind: EventKeepAlive, Packet: kind.String(), Sequence: k.Sequence})
	return resp, nil
}

// exchange отправляет пакет и ждёт одну датаграмму ответа.
// Возвращённый срез указывает в буфер машины и валиден до следующего вызова.
func (m *Machine) exchange(ctx context.Context, pkt []byte) ([]byte, error) {
	if err := m.conn.Send(ctx, pkt); err != nil {
		return nil, err
	}
	n, err := m.conn.RecvTimeout(ctx, m.buf[:])
	if err != nil {
		return nil, err
	}
	return m.buf[:n], nil
}

func (m *Machine) setPhase(p Phase) {
	m.transition(p, nil)
}

// transition меняет состояние; err: причина перехода в PhaseFailed.
func (m *Machine) transition(p Phase, err error) {
	if m.phase == p {
		return
	}
	prev := m.phase
	m.phase = p
	m.log.Debug("auth: phase changed", "from", prev, "to", p)
	m.emit(Event{Kind: EventPhase, Phase: p, Prev: prev, Err: err})
}

func (m *Machine) emit(e Event) {
	if len(m.opts.observers) == 0 {
		return
	}
	e.Time = time.Now()
	if e.Kind != EventPhase {
		e.Phase = m.phase
	}
	for _, obs := range m.opts.observers {
		obs.OnEvent(e)
	}
}
