package protocol

import (
	"bytes"
	"crypto/md5"
	"errors"
	"strings"
	"testing"
)

func testLogin(password string) *Login {
	return &Login{
		Username: "alice",
		Password: password,
		MAC:      [MACSize]byte{0, 1, 2, 3, 4, 5},
		HostName: "workstation",
		Salt:     [SaltSize]byte{1, 2, 3, 4},
		ClientIP: [IPSize]byte{10, 0, 0, 1},
		Noise:    [NoiseSize]byte{0xde, 0xad},
	}
}

func TestLoginLayoutValid(t *testing.T) {
	if err := checkLayout(loginLayout, loginFixedSize); err != nil {
		t.Fatalf("login layout: %v", err)
	}
}

func TestCheckLayoutRejects(t *testing.T) {
	tests := []struct {
		name  string
		spans []span
	}{
		{"overlap", []span{{"a", 0, 4}, {"b", 3, 2}}},
		{"out of bounds", []span{{"a", 8, 4}}},
		{"empty", []span{{"a", 0, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := checkLayout(tt.spans, 10); err == nil {
				t.Error("expected layout error")
			}
		})
	}
}

func TestBuildChallenge(t *testing.T) {
	buf := BuildChallenge(3, [NoiseSize]byte{0x11, 0x22})

	want := []byte{0x01, 0x05, 0x11, 0x22, 0x6a}
	if !bytes.Equal(buf[:5], want) {
		t.Errorf("header: got % x, want % x", buf[:5], want)
	}
	if !bytes.Equal(buf[5:], make([]byte, ChallengeSize-5)) {
		t.Errorf("tail must be zero: % x", buf[5:])
	}
}

func TestParseChallengeResponse(t *testing.T) {
	resp := make([]byte, 32)
	resp[0] = CodeChallengeResponse
	copy(resp[4:8], []byte{9, 8, 7, 6})
	copy(resp[20:24], []byte{10, 0, 0, 42})

	got, err := ParseChallengeResponse(resp)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Salt != [SaltSize]byte{9, 8, 7, 6} {
		t.Errorf("salt: got % x", got.Salt)
	}
	if got.ClientIP != [IPSize]byte{10, 0, 0, 42} {
		t.Errorf("client ip: got % x", got.ClientIP)
	}

	resp[0] = 0x07
	if _, err := ParseChallengeResponse(resp); !errors.Is(err, ErrUnexpectedCode) {
		t.Errorf("wrong code: got %v, want ErrUnexpectedCode", err)
	}

	if _, err := ParseChallengeResponse([]byte{CodeChallengeResponse, 0, 0}); !errors.Is(err, ErrShortResponse) {
		t.Errorf("short: got %v, want ErrShortResponse", err)
	}
}

func TestLoginHeader(t *testing.T) {
	pkt, md5a, err := testLogin("hunter2").Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if want := []byte{0x03, 0x01, 0x00, 0x19}; !bytes.Equal(pkt[:4], want) {
		t.Errorf("header: got % x, want % x", pkt[:4], want)
	}

	wantA := md5.Sum(append([]byte{0x03, 0x01, 1, 2, 3, 4}, "hunter2"...))
	if md5a != wantA {
		t.Errorf("md5a: got %x, want %x", md5a, wantA)
	}
	if !bytes.Equal(pkt[4:20], wantA[:]) {
		t.Errorf("md5a field: got % x", pkt[4:20])
	}

	username := append([]byte("alice"), make([]byte, 31)...)
	if !bytes.Equal(pkt[20:56], username) {
		t.Errorf("username field: got % x", pkt[20:56])
	}

	if !bytes.Equal(pkt[56:58], []byte{0x20, 0x05}) {
		t.Errorf("control check: got % x", pkt[56:58])
	}
	for i := range MACSize {
		if pkt[58+i] != wantA[i]^byte(i) {
			t.Errorf("mac xor byte %d: got %02x", i, pkt[58+i])
		}
	}

	wantB := MD5B([SaltSize]byte{1, 2, 3, 4}, []byte("hunter2"))
	if !bytes.Equal(pkt[64:80], wantB[:]) {
		t.Errorf("md5b field: got % x", pkt[64:80])
	}
	if pkt[80] != 0x01 || !bytes.Equal(pkt[81:85], []byte{10, 0, 0, 1}) {
		t.Errorf("ip block: got % x", pkt[80:85])
	}
	if !bytes.Equal(pkt[85:97], make([]byte, 12)) {
		t.Errorf("extra ips must be zero: % x", pkt[85:97])
	}

	wantC := md5.Sum(append(append([]byte{}, pkt[:97]...), 0x14, 0x00, 0x07, 0x0b))
	if !bytes.Equal(pkt[97:105], wantC[:8]) {
		t.Errorf("md5c field: got % x, want % x", pkt[97:105], wantC[:8])
	}
	if pkt[105] != 0x01 {
		t.Errorf("ipdog: got %02x", pkt[105])
	}
}

func TestLoginFixedFields(t *testing.T) {
	pkt, _, err := testLogin("hunter2").Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	host := append([]byte("workstation"), make([]byte, 21)...)
	if !bytes.Equal(pkt[110:142], host) {
		t.Errorf("host name: got % x", pkt[110:142])
	}
	if !bytes.Equal(pkt[142:154], bytes.Repeat([]byte{10}, 12)) {
		t.Errorf("dns/dhcp: got % x", pkt[142:154])
	}

	singles := map[int]byte{162: 0x94, 166: 0x06, 170: 0x02, 174: 0xf0, 175: 0x23, 178: 0x02, 310: 0x6a, 313: 7}
	for off, want := range singles {
		if pkt[off] != want {
			t.Errorf("byte %d: got %02x, want %02x", off, pkt[off], want)
		}
	}

	if !bytes.Equal(pkt[182:191], []byte("DrCOM\x00\xcf\x07\x6a")) {
		t.Errorf("signature: got % x", pkt[182:191])
	}
	if string(pkt[246:286]) != "1c210c99585fd22ad03d35c956911aeec1eb449b" {
		t.Errorf("client version: got %q", pkt[246:286])
	}
}

func TestLoginLengthAndTail(t *testing.T) {
	for n := 1; n <= MaxPasswordLen; n++ {
		password := strings.Repeat("p", n)
		l := testLogin(password)

		pkt, md5a, err := l.Encode()
		if err != nil {
			t.Fatalf("len %d: encode: %v", n, err)
		}

		if want := 334 + n - 1; len(pkt) != want {
			t.Errorf("len %d: packet length %d, want %d", n, len(pkt), want)
			continue
		}

		ror := RotateXOR(md5a[:], []byte(password))
		if !bytes.Equal(pkt[314:314+n], ror) {
			t.Errorf("len %d: ror field mismatch", n)
		}

		off := 314 + n
		if !bytes.Equal(pkt[off:off+2], []byte{0x02, 0x0c}) {
			t.Errorf("len %d: trailer: got % x", n, pkt[off:off+2])
		}
		checksum := FoldChecksum([]byte{0x01, 0x26, 0x07, 0x11, 0x00, 0x00, 0, 1, 2, 3, 4, 5})
		if !bytes.Equal(pkt[off+2:off+6], checksum[:]) {
			t.Errorf("len %d: checksum: got % x", n, pkt[off+2:off+6])
		}
		if !bytes.Equal(pkt[off+8:off+14], l.MAC[:]) {
			t.Errorf("len %d: mac: got % x", n, pkt[off+8:off+14])
		}

		noiseAt := off + 14 + (4-n%4)%4
		if !bytes.Equal(pkt[noiseAt:noiseAt+2], l.Noise[:]) {
			t.Errorf("len %d: noise: got % x", n, pkt[noiseAt:noiseAt+2])
		}
	}
}

func TestLoginLongPasswordCapped(t *testing.T) {
	pkt, md5a, err := testLogin(strings.Repeat("s", 20)).Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(pkt) != LoginLen(MaxPasswordLen) {
		t.Errorf("length: got %d, want %d", len(pkt), LoginLen(MaxPasswordLen))
	}
	if pkt[313] != MaxPasswordLen {
		t.Errorf("password len field: got %d", pkt[313])
	}
	if want := MD5A([SaltSize]byte{1, 2, 3, 4}, []byte(strings.Repeat("s", 20))); md5a != want {
		t.Error("md5a must cover the full password")
	}
}

func TestLoginUsernameTooLong(t *testing.T) {
	l := testLogin("hunter2")
	l.Username = strings.Repeat("u", MaxUsernameLen+1)

	if _, _, err := l.Encode(); !errors.Is(err, ErrUsernameTooLong) {
		t.Errorf("got %v, want ErrUsernameTooLong", err)
	}
}

func TestLoginHostNameTruncated(t *testing.T) {
	l := testLogin("hunter2")
	l.HostName = strings.Repeat("h", 40)

	pkt, _, err := l.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(pkt[110:142], bytes.Repeat([]byte{'h'}, 32)) {
		t.Errorf("host name: got %q", pkt[110:142])
	}
	if !bytes.Equal(pkt[142:146], []byte{10, 10, 10, 10}) {
		t.Errorf("host name overflowed into dns: % x", pkt[142:146])
	}
}

func TestParseLoginResponse(t *testing.T) {
	accepted := make([]byte, 48)
	accepted[0] = CodeLoginAccepted
	for i := range TailSize {
		accepted[23+i] = byte(0xa0 + i)
	}

	tail, err := ParseLoginResponse(accepted)
	if err != nil {
		t.Fatalf("accepted: %v", err)
	}
	if !bytes.Equal(tail[:], accepted[23:39]) {
		t.Errorf("tail: got % x", tail)
	}

	tests := []struct {
		name string
		resp []byte
		want error
	}{
		{"invalid mac", []byte{0x05, 0, 0, 0, 0x0b, 0}, ErrInvalidMAC},
		{"invalid credentials", []byte{0x05, 0, 0, 0, 0x03, 0}, ErrInvalidCredentials},
		{"bare reject", []byte{0x05}, ErrInvalidCredentials},
		{"unknown code", []byte{0x09, 0, 0, 0}, ErrUnknownResponse},
		{"empty", nil, ErrUnknownResponse},
		{"short accept", []byte{0x04, 0, 0}, ErrShortResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLoginResponse(tt.resp); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestKeepAlive38(t *testing.T) {
	var md5a [DigestSize]byte
	var tail [TailSize]byte
	for i := range md5a {
		md5a[i] = byte(i + 1)
		tail[i] = byte(0x80 + i)
	}

	buf := BuildKeepAlive38(md5a, tail, [NoiseSize]byte{0x33, 0x44})
	if buf[0] != 0xff {
		t.Errorf("code: got %02x", buf[0])
	}
	if !bytes.Equal(buf[1:17], md5a[:]) {
		t.Errorf("md5a: got % x", buf[1:17])
	}
	if !bytes.Equal(buf[17:20], []byte{0, 0, 0}) {
		t.Errorf("gap must be zero: % x", buf[17:20])
	}
	if !bytes.Equal(buf[20:36], tail[:]) {
		t.Errorf("tail: got % x", buf[20:36])
	}
	if buf[36] != 0x33 || buf[37] != 0x44 {
		t.Errorf("noise: got % x", buf[36:38])
	}

	resp := make([]byte, 32)
	resp[28], resp[29] = 0xdc, 0x02
	version, err := ParseKeepAlive38Response(resp)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if version != [VersionSize]byte{0xdc, 0x02} {
		t.Errorf("version: got % x", version)
	}

	if _, err := ParseKeepAlive38Response(resp[:20]); !errors.Is(err, ErrShortResponse) {
		t.Errorf("short: got %v", err)
	}
}

func TestKeepAlive40(t *testing.T) {
	base := KeepAlive40{
		Sequence: 7,
		Version:  [VersionSize]byte{0xdc, 0x02},
		Tail2:    [Tail2Size]byte{1, 2, 3, 4},
		ClientIP: [IPSize]byte{10, 0, 0, 1},
		Noise:    [NoiseSize]byte{0x55, 0x66},
	}

	tests := []struct {
		kind    AliveKind
		typ     byte
		version []byte
	}{
		{AliveFirst, 0x01, []byte{0xdc, 0x02}},
		{AliveSecond, 0x03, []byte{0xdc, 0x02}},
		{AliveExtra, 0x01, []byte{0x0f, 0x27}},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			k := base
			k.Kind = tt.kind
			buf := k.Encode()

			if !bytes.Equal(buf[:5], []byte{0x07, 7, 0x20, 0x00, 0x0b}) {
				t.Errorf("header: got % x", buf[:5])
			}
			if buf[5] != tt.typ {
				t.Errorf("type: got %02x, want %02x", buf[5], tt.typ)
			}
			if !bytes.Equal(buf[6:8], tt.version) {
				t.Errorf("version: got % x, want % x", buf[6:8], tt.version)
			}
			if !bytes.Equal(buf[8:10], []byte{0x55, 0x66}) {
				t.Errorf("noise: got % x", buf[8:10])
			}
			if !bytes.Equal(buf[16:20], []byte{1, 2, 3, 4}) {
				t.Errorf("tail2: got % x", buf[16:20])
			}

			if tt.kind != AliveSecond {
				if !bytes.Equal(buf[24:32], make([]byte, 8)) {
					t.Errorf("crc block must be zero: % x", buf[24:32])
				}
				return
			}

			crcInput := append(append([]byte{}, buf[:24]...), 10, 0, 0, 1)
			crc := FoldCRC16(crcInput)
			if !bytes.Equal(buf[24:28], crc[:]) {
				t.Errorf("crc: got % x, want % x", buf[24:28], crc)
			}
			if !bytes.Equal(buf[28:32], []byte{10, 0, 0, 1}) {
				t.Errorf("client ip: got % x", buf[28:32])
			}
		})
	}
}

func TestParseKeepAlive40Response(t *testing.T) {
	resp := make([]byte, 40)
	copy(resp[16:20], []byte{0xca, 0xfe, 0xba, 0xbe})

	tail2, err := ParseKeepAlive40Response(resp)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tail2 != [Tail2Size]byte{0xca, 0xfe, 0xba, 0xbe} {
		t.Errorf("tail2: got % x", tail2)
	}

	if _, err := ParseKeepAlive40Response(resp[:10]); !errors.Is(err, ErrShortResponse) {
		t.Errorf("short: got %v", err)
	}
}
