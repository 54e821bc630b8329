package protocol

import "fmt"

// Login: входные данные login пакета.
type Login struct {
	Username string
	Password string
	MAC      [MACSize]byte
	HostName string
	Salt     [SaltSize]byte
	ClientIP [IPSize]byte
	// Noise: два случайных байта в конце пакета.
	Noise [NoiseSize]byte
}

// LoginLen возвращает длину login пакета для пароля длины passwordLen (1..16).
// Длина на единицу меньше выровненной, так ведёт себя официальный клиент.
func LoginLen(passwordLen int) int {
	return loginBaseLen + passwordLen - 1
}

// passwordLen возвращает значимую для протокола длину пароля.
func passwordLen(password string) int {
	return min(len(password), MaxPasswordLen)
}

// Encode собирает login пакет и возвращает его вместе с md5a,
// который дальше нужен для keep-alive.
func (l *Login) Encode() ([]byte, [DigestSize]byte, error) {
	var md5a [DigestSize]byte
	if len(l.Username) > MaxUsernameLen {
		return nil, md5a, fmt.Errorf("login: %w: %d > %d", ErrUsernameTooLong, len(l.Username), MaxUsernameLen)
	}

	password := []byte(l.Password)
	pwLen := passwordLen(l.Password)

	md5a = MD5A(l.Salt, password)
	md5b := MD5B(l.Salt, password)

	f := make(frame, loginFixedSize, LoginLen(MaxPasswordLen)+NoiseSize)

	// 1. Заголовок и учётные данные
	f.put(spanCode, loginCode)
	f.putByte(spanUsernameLen, byte(len(l.Username)+20))
	f.put(spanMD5A, md5a[:])
	f.putPadded(spanUsername, []byte(l.Username))
	f.put(spanControlCheck, controlCheck)

	var macXor [MACSize]byte
	for i := range macXor {
		macXor[i] = md5a[i] ^ l.MAC[i]
	}
	f.put(spanMACXor, macXor[:])
	f.put(spanMD5B, md5b[:])

	// 2. Адреса
	f.putByte(spanIPCount, 0x01)
	f.put(spanClientIP, l.ClientIP[:])
	f.putPadded(spanExtraIPs, nil)

	// 3. md5c считается по уже записанным [0:97]
	md5c := MD5C(f[:spanMD5C.off])
	f.put(spanMD5C, md5c[:spanMD5C.size])
	f.putByte(spanIPDog, 0x01)

	// 4. Хост и окружение
	f.putPadded(spanHostName, []byte(l.HostName))
	f.put(spanPrimaryDNS, placeholderIP)
	f.put(spanDHCPServer, placeholderIP)
	f.put(spanSecondaryDNS, placeholderIP)
	f.putByte(spanOSInfoSize, 0x94)
	f.putByte(spanOSMajor, 0x06)
	f.putByte(spanOSMinor, 0x02)
	f.put(spanOSBuild, osBuild)
	f.putByte(spanOSPlatform, 0x02)
	f.put(spanSignature, clientSignature)
	f.put(spanClientVersion, clientVersion)
	f.putByte(spanAuthVersion, AuthVersion)
	f.putByte(spanPasswordLen, byte(pwLen))

	// 5. Хвост переменной длины
	out := []byte(f)
	out = append(out, RotateXOR(md5a[:], password[:pwLen])...)
	out = append(out, passwordTrailer...)
	checksum := FoldChecksum(append(append([]byte{}, macChecksumHead...), l.MAC[:]...))
	out = append(out, checksum[:]...)
	out = append(out, 0x00, 0x00)
	out = append(out, l.MAC[:]...)
	out = append(out, make([]byte, (4-pwLen%4)%4)...)
	out = append(out, l.Noise[:]...)

	return resize(out, LoginLen(pwLen)), md5a, nil
}

// resize обрезает b до n байт или дополняет нулями.
func resize(b []byte, n int) []byte {
	if len(b) >= n {
		return b[:n]
	}
	return append(b, make([]byte, n-len(b))...)
}

// ParseLoginResponse разбирает ответ на login и возвращает tail.
func ParseLoginResponse(b []byte) ([TailSize]byte, error) {
	var tail [TailSize]byte
	if len(b) == 0 {
		return tail, fmt.Errorf("login: %w: empty datagram", ErrUnknownResponse)
	}

	switch b[0] {
	case CodeLoginAccepted:
		if len(b) < LoginResponseMin {
			return tail, fmt.Errorf("login: %w: %d < %d", ErrShortResponse, len(b), LoginResponseMin)
		}
		copy(tail[:], b[23:39])
		return tail, nil
	case CodeLoginRejected:
		if len(b) > 4 && b[4] == RejectReasonMAC {
			return tail, ErrInvalidMAC
		}
		return tail, ErrInvalidCredentials
	default:
		return tail, fmt.Errorf("login: %w: 0x%02x", ErrUnknownResponse, b[0])
	}
}
