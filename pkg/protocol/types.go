// Package protocol реализует wire-формат протокола аутентификации Dr.COM (версия 0x6a):
// challenge, login и два вида keep-alive пакетов поверх UDP.
package protocol

// Коды пакетов (байт 0).
const (
	CodeChallengeRequest  byte = 0x01
	CodeChallengeResponse byte = 0x02
	CodeLoginRequest      byte = 0x03
	CodeLoginAccepted     byte = 0x04
	CodeLoginRejected     byte = 0x05
	CodeKeepAlive40       byte = 0x07
	CodeKeepAlive38       byte = 0xff
)

// RejectReasonMAC: байт 4 ответа CodeLoginRejected при неверном MAC.
const RejectReasonMAC byte = 0x0b

// AuthVersion: версия протокола, зашитая в challenge и login.
const AuthVersion byte = 0x6a

// Размеры полей
const (
	SaltSize       = 4
	IPSize         = 4
	MACSize        = 6
	DigestSize     = 16
	TailSize       = 16
	Tail2Size      = 4
	VersionSize    = 2
	NoiseSize      = 2
	MaxPasswordLen = 16
	MaxUsernameLen = 36
	HostNameSize   = 32
)

// Размеры пакетов
const (
	ChallengeSize   = 20
	KeepAlive38Size = 38
	KeepAlive40Size = 40

	// loginFixedSize: часть login пакета с фиксированной раскладкой.
	loginFixedSize = 314
	// loginBaseLen: базовая длина login пакета, к ней прибавляется len(password)-1.
	loginBaseLen = 334
)

// Минимальные длины ответов сервера: последний читаемый байт + 1.
const (
	ChallengeResponseMin   = 24
	LoginResponseMin       = 39
	KeepAlive38ResponseMin = 30
	KeepAlive40ResponseMin = 20
)

// RecvBufSize: размер буфера приёма, достаточный для любого ответа сервера.
const RecvBufSize = 64

// ExtraInterval: extra keep-alive отправляется когда sequence % ExtraInterval == 0.
const ExtraInterval = 21
