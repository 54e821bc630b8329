package protocol

import "fmt"

// BuildKeepAlive38 собирает 38-байтовый keep-alive.
func BuildKeepAlive38(md5a [DigestSize]byte, tail [TailSize]byte, noise [NoiseSize]byte) [KeepAlive38Size]byte {
	var buf [KeepAlive38Size]byte
	buf[0] = CodeKeepAlive38
	copy(buf[1:17], md5a[:])
	copy(buf[20:36], tail[:])
	buf[36] = noise[0]
	buf[37] = noise[1]
	return buf
}

// ParseKeepAlive38Response возвращает версию keep-alive из байт [28:30] ответа.
func ParseKeepAlive38Response(b []byte) ([VersionSize]byte, error) {
	var version [VersionSize]byte
	if len(b) < KeepAlive38ResponseMin {
		return version, fmt.Errorf("keep-alive 38: %w: %d < %d", ErrShortResponse, len(b), KeepAlive38ResponseMin)
	}
	copy(version[:], b[28:30])
	return version, nil
}

// AliveKind: разновидность 40-байтового keep-alive.
type AliveKind uint8

const (
	// AliveFirst: первый пакет раунда, ответ обновляет tail_2.
	AliveFirst AliveKind = iota + 1
	// AliveSecond: второй пакет раунда с CRC и client IP.
	AliveSecond
	// AliveExtra: дополнительный пакет раз в ExtraInterval.
	AliveExtra
)

// String возвращает имя разновидности.
func (k AliveKind) String() string {
	switch k {
	case AliveFirst:
		return "first"
	case AliveSecond:
		return "second"
	case AliveExtra:
		return "extra"
	default:
		return "unknown"
	}
}

// extraVersion подставляется вместо согласованной версии в AliveExtra.
var extraVersion = [VersionSize]byte{0x0f, 0x27}

// KeepAlive40: входные данные 40-байтового keep-alive.
type KeepAlive40 struct {
	Kind     AliveKind
	Sequence byte
	Version  [VersionSize]byte
	Tail2    [Tail2Size]byte
	ClientIP [IPSize]byte
	Noise    [NoiseSize]byte
}

// Encode собирает пакет.
func (k *KeepAlive40) Encode() [KeepAlive40Size]byte {
	var buf [KeepAlive40Size]byte
	buf[0] = CodeKeepAlive40
	buf[1] = k.Sequence
	buf[2] = 0x20
	buf[3] = 0x00
	buf[4] = 0x0b

	if k.Kind == AliveSecond {
		buf[5] = 0x03
	} else {
		buf[5] = 0x01
	}

	version := k.Version
	if k.Kind == AliveExtra {
		version = extraVersion
	}
	copy(buf[6:8], version[:])

	buf[8] = k.Noise[0]
	buf[9] = k.Noise[1]
	copy(buf[16:20], k.Tail2[:])

	if k.Kind == AliveSecond {
		var crcInput [24 + IPSize]byte
		copy(crcInput[:24], buf[:24])
		copy(crcInput[24:], k.ClientIP[:])
		crc := FoldCRC16(crcInput[:])
		copy(buf[24:28], crc[:])
		copy(buf[28:32], k.ClientIP[:])
	}
	return buf
}

// ParseKeepAlive40Response возвращает tail_2 из байт [16:20] ответа.
func ParseKeepAlive40Response(b []byte) ([Tail2Size]byte, error) {
	var tail2 [Tail2Size]byte
	if len(b) < KeepAlive40ResponseMin {
		return tail2, fmt.Errorf("keep-alive 40: %w: %d < %d", ErrShortResponse, len(b), KeepAlive40ResponseMin)
	}
	copy(tail2[:], b[16:20])
	return tail2, nil
}
