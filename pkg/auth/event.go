package auth

import "time"

// Phase: состояние машины аутентификации.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseChallenging
	PhaseLoggingIn
	PhaseKeepAlive
	PhaseFailed
)

// String возвращает имя состояния.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseChallenging:
		return "challenging"
	case PhaseLoggingIn:
		return "logging_in"
	case PhaseKeepAlive:
		return "keep_alive"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EventKind: тип события.
type EventKind uint8

const (
	// EventPhase: смена состояния, Phase и Prev заполнены.
	EventPhase EventKind = iota + 1
	// EventChallengeAttempt: результат одной попытки challenge, Attempt с единицы.
	EventChallengeAttempt
	// EventKeepAlive: принят ответ на keep-alive пакет Packet.
	EventKeepAlive
	// EventRestart: попытка провалилась и будет перезапущена, Attempt: номер повтора.
	EventRestart
)

// String возвращает имя типа события.
func (k EventKind) String() string {
	switch k {
	case EventPhase:
		return "phase"
	case EventChallengeAttempt:
		return "challenge_attempt"
	case EventKeepAlive:
		return "keep_alive"
	case EventRestart:
		return "restart"
	default:
		return "unknown"
	}
}

// PacketKeepAlive38: Event.Packet для 38-байтового keep-alive.
// Для 40-байтовых пакетов Packet равен protocol.AliveKind.String().
const PacketKeepAlive38 = "keep_alive_38"

// Event описывает шаг машины для наблюдателей.
type Event struct {
	Kind     EventKind
	Time     time.Time
	Phase    Phase
	Prev     Phase
	Attempt  int
	Packet   string
	Sequence byte
	Err      error
}

// Observer получает события машины. Вызывается синхронно из потока машины,
// поэтому не должен блокироваться.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc адаптирует функцию к Observer.
type ObserverFunc func(Event)

// OnEvent вызывает f.
func (f ObserverFunc) OnEvent(e Event) { f(e) }
