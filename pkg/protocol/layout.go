package protocol

import (
	"fmt"
	"sort"
)

// span: именованный диапазон байт [off, off+size) внутри пакета.
type span struct {
	name string
	off  int
	size int
}

func (s span) end() int { return s.off + s.size }

// Раскладка фиксированной части login пакета [0:314].
// Диапазоны не перекрываются, промежутки между ними заполнены нулями:
//
//	[0:3]     - код 0x03 0x01 0x00
//	[3]       - len(username) + 20
//	[4:20]    - md5a
//	[20:56]   - username, NUL-padded
//	[56:58]   - control check 0x20 0x05
//	[58:64]   - md5a[0:6] XOR mac
//	[64:80]   - md5b
//	[80]      - количество IP (0x01)
//	[81:85]   - client IP
//	[85:97]   - нули (ещё три IP)
//	[97:105]  - md5c[0:8]
//	[105]     - ipdog (0x01)
//	[110:142] - host name, NUL-padded
//	[142:154] - primary DNS, DHCP server, secondary DNS
//	[162:182] - маркеры версии ОС
//	[182:191] - сигнатура "DrCOM\x00\xcf\x07\x6a"
//	[246:286] - строка версии клиента
//	[310]     - AuthVersion
//	[313]     - длина пароля
var (
	spanCode          = span{"code", 0, 3}
	spanUsernameLen   = span{"username_len", 3, 1}
	spanMD5A          = span{"md5a", 4, DigestSize}
	spanUsername      = span{"username", 20, MaxUsernameLen}
	spanControlCheck  = span{"control_check", 56, 2}
	spanMACXor        = span{"mac_xor", 58, MACSize}
	spanMD5B          = span{"md5b", 64, DigestSize}
	spanIPCount       = span{"ip_count", 80, 1}
	spanClientIP      = span{"client_ip", 81, IPSize}
	spanExtraIPs      = span{"extra_ips", 85, 12}
	spanMD5C          = span{"md5c", 97, 8}
	spanIPDog         = span{"ipdog", 105, 1}
	spanHostName      = span{"host_name", 110, HostNameSize}
	spanPrimaryDNS    = span{"primary_dns", 142, IPSize}
	spanDHCPServer    = span{"dhcp_server", 146, IPSize}
	spanSecondaryDNS  = span{"secondary_dns", 150, IPSize}
	spanOSInfoSize    = span{"os_info_size", 162, 1}
	spanOSMajor       = span{"os_major", 166, 1}
	spanOSMinor       = span{"os_minor", 170, 1}
	spanOSBuild       = span{"os_build", 174, 2}
	spanOSPlatform    = span{"os_platform", 178, 1}
	spanSignature     = span{"signature", 182, 9}
	spanClientVersion = span{"client_version", 246, 40}
	spanAuthVersion   = span{"auth_version", 310, 1}
	spanPasswordLen   = span{"password_len", 313, 1}
)

var loginLayout = []span{
	spanCode, spanUsernameLen, spanMD5A, spanUsername, spanControlCheck,
	spanMACXor, spanMD5B, spanIPCount, spanClientIP, spanExtraIPs,
	spanMD5C, spanIPDog, spanHostName, spanPrimaryDNS, spanDHCPServer,
	spanSecondaryDNS, spanOSInfoSize, spanOSMajor, spanOSMinor, spanOSBuild,
	spanOSPlatform, spanSignature, spanClientVersion, spanAuthVersion, spanPasswordLen,
}

// Константные поля login пакета. Реальные DNS/DHCP и версия ОС сервером,
// судя по всему, не проверяются, поэтому передаются заглушки.
var (
	loginCode       = []byte{CodeLoginRequest, 0x01, 0x00}
	controlCheck    = []byte{0x20, 0x05}
	placeholderIP   = []byte{10, 10, 10, 10}
	clientSignature = []byte{0x44, 0x72, 0x43, 0x4f, 0x4d, 0x00, 0xcf, 0x07, AuthVersion}
	clientVersion   = []byte("1c210c99585fd22ad03d35c956911aeec1eb449b")
	osBuild         = []byte{0xf0, 0x23}
	macChecksumHead = []byte{0x01, 0x26, 0x07, 0x11, 0x00, 0x00}
	passwordTrailer = []byte{0x02, 0x0c}
)

func init() {
	if err := checkLayout(loginLayout, loginFixedSize); err != nil {
		panic(fmt.Sprintf("protocol: login layout: %v", err))
	}
}

// checkLayout проверяет что диапазоны лежат внутри size и не перекрываются.
func checkLayout(spans []span, size int) error {
	sorted := make([]span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].off < sorted[j].off })

	prevEnd := 0
	prevName := ""
	for _, s := range sorted {
		if s.size <= 0 {
			return fmt.Errorf("%s: empty span", s.name)
		}
		if s.off < 0 || s.end() > size {
			return fmt.Errorf("%s: [%d:%d] out of [0:%d]", s.name, s.off, s.end(), size)
		}
		if s.off < prevEnd {
			return fmt.Errorf("%s: overlaps %s at %d", s.name, prevName, s.off)
		}
		prevEnd = s.end()
		prevName = s.name
	}
	return nil
}

// frame: буфер пакета с записью по именованным диапазонам.
type frame []byte

// put записывает b ровно в диапазон s.
func (f frame) put(s span, b []byte) {
	if len(b) != s.size {
		panic(fmt.Sprintf("protocol: %s: got %d bytes, want %d", s.name, len(b), s.size))
	}
	copy(f[s.off:s.end()], b)
}

// putByte записывает однобайтовое поле.
func (f frame) putByte(s span, v byte) {
	f.put(s, []byte{v})
}

// putPadded записывает b в диапазон s, дополняя нулями или обрезая.
func (f frame) putPadded(s span, b []byte) {
	field := f[s.off:s.end()]
	n := copy(field, b)
	clear(field[n:])
}

// get возвращает содержимое диапазона.
func (f frame) get(s span) []byte {
	return f[s.off:s.end()]
}
