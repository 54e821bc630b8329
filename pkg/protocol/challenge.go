package protocol

import "fmt"

// BuildChallenge собирает challenge запрос.
// attempt: номер попытки с нуля, он складывается с базовым тегом 0x02.
func BuildChallenge(attempt byte, noise [NoiseSize]byte) [ChallengeSize]byte {
	var buf [ChallengeSize]byte
	buf[0] = CodeChallengeRequest
	buf[1] = 0x02 + attempt
	buf[2] = noise[0]
	buf[3] = noise[1]
	buf[4] = AuthVersion
	return buf
}

// ChallengeResponse: поля, выданные сервером в ответ на challenge.
type ChallengeResponse struct {
	Salt     [SaltSize]byte
	ClientIP [IPSize]byte
}

// ParseChallengeResponse разбирает ответ на challenge.
// Любой код кроме CodeChallengeResponse: ErrUnexpectedCode.
func ParseChallengeResponse(b []byte) (*ChallengeResponse, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("challenge: %w: empty datagram", ErrShortResponse)
	}
	if b[0] != CodeChallengeResponse {
		return nil, fmt.Errorf("challenge: %w: 0x%02x", ErrUnexpectedCode, b[0])
	}
	if len(b) < ChallengeResponseMin {
		return nil, fmt.Errorf("challenge: %w: %d < %d", ErrShortResponse, len(b), ChallengeResponseMin)
	}

	var r ChallengeResponse
	copy(r.Salt[:], b[4:8])
	copy(r.ClientIP[:], b[20:24])
	return &r, nil
}
