// Package session хранит изменяемое состояние одной попытки аутентификации.
package session

import "github.com/udisondev/jlud/pkg/protocol"

// State накапливается по мере ответов сервера.
// Salt и ClientIP валидны после challenge, MD5A и Tail: после login.
// Значение принадлежит одной попытке: перезапуск с challenge начинается с Reset.
type State struct {
	Salt             [protocol.SaltSize]byte
	ClientIP         [protocol.IPSize]byte
	MD5A             [protocol.DigestSize]byte
	Tail             [protocol.TailSize]byte
	Tail2            [protocol.Tail2Size]byte
	KeepAliveVersion [protocol.VersionSize]byte
	// Sequence: счётчик 40-байтовых keep-alive, переполняется 255 -> 0.
	Sequence byte

	challenged bool
	loggedIn   bool
}

// Reset возвращает состояние к нулевому.
func (s *State) Reset() {
	*s = State{}
}

// ApplyChallenge сохраняет поля ответа на challenge.
func (s *State) ApplyChallenge(r *protocol.ChallengeResponse) {
	s.Salt = r.Salt
	s.ClientIP = r.ClientIP
	s.challenged = true
}

// ApplyLogin сохраняет md5a и tail после успешного login.
func (s *State) ApplyLogin(md5a [protocol.DigestSize]byte, tail [protocol.TailSize]byte) {
	s.MD5A = md5a
	s.Tail = tail
	s.loggedIn = true
}

// Challenged сообщает, получены ли salt и client IP.
func (s State) Challenged() bool { return s.challenged }

// LoggedIn сообщает, можно ли начинать keep-alive.
func (s State) LoggedIn() bool { return s.loggedIn }

// NextSequence возвращает текущий номер и сдвигает счётчик.
func (s *State) NextSequence() byte {
	n := s.Sequence
	s.Sequence++
	return n
}

// ExtraDue сообщает, нужен ли extra keep-alive в текущем раунде.
func (s State) ExtraDue() bool {
	return s.Sequence%protocol.ExtraInterval == 0
}
