package jludtest

import (
	"bytes"
	"context"
	"errors"
	"net"
	"sync"

	"github.com/udisondev/jlud/pkg/protocol"
	"github.com/udisondev/jlud/pkg/transport"
)

// Verdict: ответ сервера на login.
type Verdict uint8

const (
	VerdictAccept Verdict = iota
	VerdictRejectCredentials
	VerdictRejectMAC
)

// Значения сервера по умолчанию.
var (
	DefaultSalt     = [protocol.SaltSize]byte{0x01, 0x02, 0x03, 0x04}
	DefaultClientIP = [protocol.IPSize]byte{10, 1, 2, 3}
	DefaultTail     = [protocol.TailSize]byte{0xa0, 0xa1, 0xa2, 0xa3, 0xa4, 0xa5, 0xa6, 0xa7, 0xa8, 0xa9, 0xaa, 0xab, 0xac, 0xad, 0xae, 0xaf}
	DefaultTail2    = [protocol.Tail2Size]byte{0xb0, 0xb1, 0xb2, 0xb3}
	DefaultVersion  = [protocol.VersionSize]byte{0xdc, 0x02}
)

// Server: сценарный сервер аутентификации.
// Отвечает на challenge, login и keep-alive и записывает все принятые пакеты.
// Handle можно вызывать напрямую через Pipe или поверх UDP через Listen.
type Server struct {
	mu sync.Mutex

	salt     [protocol.SaltSize]byte
	clientIP [protocol.IPSize]byte
	tail     [protocol.TailSize]byte
	tail2    [protocol.Tail2Size]byte
	version  [protocol.VersionSize]byte
	verdict  Verdict

	username string
	password string
	mac      *[protocol.MACSize]byte

	dropChallenges int
	dropLogins     int
	challengeCode  byte
	aliveLimit     int

	packets    [][]byte
	logins     int
	aliveCount int

	conn *net.UDPConn
	done chan struct{}
}

// ServerOption конфигурирует Server.
type ServerOption func(*Server)

// WithSalt задаёт salt ответа на challenge.
func WithSalt(salt [protocol.SaltSize]byte) ServerOption {
	return func(s *Server) { s.salt = salt }
}

// WithClientIP задаёт client IP ответа на challenge.
func WithClientIP(ip [protocol.IPSize]byte) ServerOption {
	return func(s *Server) { s.clientIP = ip }
}

// WithTail задаёт tail ответа на login.
func WithTail(tail [protocol.TailSize]byte) ServerOption {
	return func(s *Server) { s.tail = tail }
}

// WithTail2 задаёт tail_2 ответов на 40-байтовый keep-alive.
func WithTail2(tail2 [protocol.Tail2Size]byte) ServerOption {
	return func(s *Server) { s.tail2 = tail2 }
}

// WithVersion задаёт версию в ответе на 38-байтовый keep-alive.
func WithVersion(v [protocol.VersionSize]byte) ServerOption {
	return func(s *Server) { s.version = v }
}

// WithVerdict задаёт безусловный ответ на login.
func WithVerdict(v Verdict) ServerOption {
	return func(s *Server) { s.verdict = v }
}

// WithAccount включает проверку имени и пароля по md5a.
// Несовпадение даёт VerdictRejectCredentials.
func WithAccount(username, password string) ServerOption {
	return func(s *Server) {
		s.username = username
		s.password = password
	}
}

// WithMAC включает проверку MAC из login пакета.
// Несовпадение даёт VerdictRejectMAC.
func WithMAC(mac [protocol.MACSize]byte) ServerOption {
	return func(s *Server) { s.mac = &mac }
}

// WithDroppedChallenges: сервер молчит на первые n challenge запросов.
func WithDroppedChallenges(n int) ServerOption {
	return func(s *Server) { s.dropChallenges = n }
}

// WithChallengeCode подменяет код ответа на challenge.
func WithChallengeCode(code byte) ServerOption {
	return func(s *Server) { s.challengeCode = code }
}

// WithDroppedLogins: сервер молчит на первые n login запросов.
func WithDroppedLogins(n int) ServerOption {
	return func(s *Server) { s.dropLogins = n }
}

// WithKeepAliveLimit: после n keep-alive пакетов с последнего login
// сервер перестаёт на них отвечать.
func WithKeepAliveLimit(n int) ServerOption {
	return func(s *Server) { s.aliveLimit = n }
}

// NewServer создаёт сервер с ответами по умолчанию.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		salt:     DefaultSalt,
		clientIP: DefaultClientIP,
		tail:     DefaultTail,
		tail2:    DefaultTail2,
		version:  DefaultVersion,

		challengeCode: protocol.CodeChallengeResponse,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle обрабатывает пакет. ok == false: сервер не отвечает.
func (s *Server) Handle(pkt []byte) (resp []byte, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.packets = append(s.packets, bytes.Clone(pkt))
	if len(pkt) == 0 {
		return nil, false
	}

	switch pkt[0] {
	case protocol.CodeChallengeRequest:
		if s.dropChallenges > 0 {
			s.dropChallenges--
			return nil, false
		}
		resp = make([]byte, 32)
		resp[0] = s.challengeCode
		if len(pkt) > 1 {
			resp[1] = pkt[1]
		}
		copy(resp[4:8], s.salt[:])
		copy(resp[20:24], s.clientIP[:])
		return resp, true

	case protocol.CodeLoginRequest:
		s.logins++
		if s.dropLogins > 0 {
			s.dropLogins--
			return nil, false
		}
		s.aliveCount = 0
		return s.loginReply(pkt), true

	case protocol.CodeKeepAlive38, protocol.CodeKeepAlive40:
		s.aliveCount++
		if s.aliveLimit > 0 && s.aliveCount > s.aliveLimit {
			return nil, false
		}
		if pkt[0] == protocol.CodeKeepAlive38 {
			resp = make([]byte, protocol.KeepAlive38ResponseMin)
			copy(resp[28:30], s.version[:])
		} else {
			resp = make([]byte, protocol.KeepAlive40Size)
			copy(resp[16:20], s.tail2[:])
		}
		resp[0] = protocol.CodeKeepAlive40
		return resp, true
	}
	return nil, false
}

func (s *Server) loginReply(pkt []byte) []byte {
	verdict := s.verdict
	if verdict == VerdictAccept && len(pkt) >= 64 {
		verdict = s.checkLogin(pkt)
	}

	switch verdict {
	case VerdictRejectCredentials:
		return []byte{protocol.CodeLoginRejected, 0, 0, 0, 0x03}
	case VerdictRejectMAC:
		return []byte{protocol.CodeLoginRejected, 0, 0, 0, protocol.RejectReasonMAC}
	}

	resp := make([]byte, 48)
	resp[0] = protocol.CodeLoginAccepted
	copy(resp[23:39], s.tail[:])
	return resp
}

func (s *Server) checkLogin(pkt []byte) Verdict {
	md5a := pkt[4:20]
	if s.username != "" {
		username := string(bytes.TrimRight(pkt[20:56], "\x00"))
		want := protocol.MD5A(s.salt, []byte(s.password))
		if username != s.username || !bytes.Equal(md5a, want[:]) {
			return VerdictRejectCredentials
		}
	}
	if s.mac != nil {
		for i := range protocol.MACSize {
			if md5a[i]^pkt[58+i] != s.mac[i] {
				return VerdictRejectMAC
			}
		}
	}
	return VerdictAccept
}

// Packets возвращает копию принятых пакетов в порядке поступления.
func (s *Server) Packets() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.packets...)
}

// PacketsWithCode возвращает принятые пакеты с кодом code.
func (s *Server) PacketsWithCode(code byte) [][]byte {
	var out [][]byte
	for _, p := range s.Packets() {
		if len(p) > 0 && p[0] == code {
			out = append(out, p)
		}
	}
	return out
}

// Logins возвращает число принятых login пакетов.
func (s *Server) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

// Listen запускает обслуживание на UDP адресе addr ("127.0.0.1:0" для тестов).
func (s *Server) Listen(addr string) (*net.UDPAddr, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return nil, err
	}

	s.conn = conn
	s.done = make(chan struct{})
	go s.serve()
	return conn.LocalAddr().(*net.UDPAddr), nil
}

func (s *Server) serve() {
	defer close(s.done)

	buf := make([]byte, 1500)
	for {
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		resp, ok := s.Handle(buf[:n])
		if !ok {
			continue
		}
		if _, err := s.conn.WriteToUDP(resp, from); err != nil {
			return
		}
	}
}

// Close останавливает UDP обслуживание.
func (s *Server) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	<-s.done
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Pipe: соединение в памяти поверх Server.Handle.
// Отсутствие ответа видно как transport.ErrTimeout.
type Pipe struct {
	srv *Server

	mu      sync.Mutex
	pending []byte
	ready   bool
}

// Pipe возвращает соединение в памяти к серверу.
func (s *Server) Pipe() *Pipe {
	return &Pipe{srv: s}
}

// Send передаёт пакет серверу и запоминает ответ.
func (p *Pipe) Send(ctx context.Context, b []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	resp, ok := p.srv.Handle(b)

	p.mu.Lock()
	p.pending, p.ready = resp, ok
	p.mu.Unlock()
	return nil
}

// RecvTimeout отдаёт ответ на последний Send.
func (p *Pipe) RecvTimeout(ctx context.Context, b []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		return 0, transport.ErrTimeout
	}
	p.ready = false
	return copy(b, p.pending), nil
}
