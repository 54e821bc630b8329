// Package credentials хранит учётные данные пользователя в зашифрованном файле.
//
// Формат файла:
//
//	[0:32]   - ключ AES-256
//	[32:44]  - nonce AES-GCM
//	u64 BE   - длина шифротекста пароля
//	...      - шифротекст
//	u64 BE   - длина имени пользователя
//	...      - имя пользователя
//	[6]      - MAC адрес
package credentials

import (
	"bufio"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// Размеры полей файла
const (
	KeySize   = 32
	NonceSize = 12
	MACSize   = 6

	// maxFieldLen ограничивает длины полей при чтении повреждённого файла.
	maxFieldLen = 4096
)

var (
	// ErrInvalidMAC: строка не является 6-байтовым MAC адресом.
	ErrInvalidMAC = errors.New("invalid MAC address")

	// ErrCorruptFile: файл обрезан или не расшифровывается.
	ErrCorruptFile = errors.New("corrupt credentials file")
)

// User: учётные данные для аутентификации.
type User struct {
	Username string
	Password string
	MAC      [MACSize]byte
}

// HasMAC сообщает, задан ли MAC (нулевой означает "взять с интерфейса").
func (u User) HasMAC() bool {
	return u.MAC != [MACSize]byte{}
}

// ParseMAC разбирает MAC вида aa:bb:cc:dd:ee:ff.
func ParseMAC(s string) ([MACSize]byte, error) {
	var mac [MACSize]byte
	hw, err := net.ParseMAC(s)
	if err != nil {
		return mac, fmt.Errorf("%w: %q: %w", ErrInvalidMAC, s, err)
	}
	if len(hw) != MACSize {
		return mac, fmt.Errorf("%w: %q: %d bytes", ErrInvalidMAC, s, len(hw))
	}
	copy(mac[:], hw)
	return mac, nil
}

// FormatMAC возвращает MAC в виде aa:bb:cc:dd:ee:ff.
func FormatMAC(mac [MACSize]byte) string {
	return net.HardwareAddr(mac[:]).String()
}

// Encrypt записывает u в w, генерируя новый ключ и nonce.
func Encrypt(w io.Writer, u *User) error {
	var key [KeySize]byte
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	aead, err := newAEAD(key[:])
	if err != nil {
		return err
	}
	sealed := aead.Seal(nil, nonce[:], []byte(u.Password), nil)

	bw := bufio.NewWriter(w)
	bw.Write(key[:])
	bw.Write(nonce[:])
	writeField(bw, sealed)
	writeField(bw, []byte(u.Username))
	bw.Write(u.MAC[:])

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Decrypt читает и расшифровывает учётные данные из r.
func Decrypt(r io.Reader) (*User, error) {
	br := bufio.NewReader(r)

	var key [KeySize]byte
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(br, key[:]); err != nil {
		return nil, corrupt("read key", err)
	}
	if _, err := io.ReadFull(br, nonce[:]); err != nil {
		return nil, corrupt("read nonce", err)
	}

	sealed, err := readField(br)
	if err != nil {
		return nil, corrupt("read password", err)
	}
	username, err := readField(br)
	if err != nil {
		return nil, corrupt("read username", err)
	}

	var u User
	if _, err := io.ReadFull(br, u.MAC[:]); err != nil {
		return nil, corrupt("read mac", err)
	}

	aead, err := newAEAD(key[:])
	if err != nil {
		return nil, err
	}
	password, err := aead.Open(nil, nonce[:], sealed, nil)
	if err != nil {
		return nil, corrupt("decrypt password", err)
	}

	if !utf8.Valid(username) || !utf8.Valid(password) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrCorruptFile)
	}
	u.Username = string(username)
	u.Password = string(password)
	return &u, nil
}

// Save создаёт файл path с правами 0600. Существующий файл не перезаписывается.
func Save(path string, u *User) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("create credentials file: %w", err)
	}

	if err := Encrypt(f, u); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

// Load читает файл учётных данных.
func Load(path string) (*User, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open credentials file: %w", err)
	}
	defer f.Close()

	return Decrypt(f)
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return aead, nil
}

// writeField пишет u64 BE длину и данные. Ошибки копятся в bufio.Writer до Flush.
func writeField(w *bufio.Writer, b []byte) {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(b)))
	w.Write(lenBuf[:])
	w.Write(b)
}

func readField(r io.Reader) ([]byte, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint64(lenBuf[:])
	if n > maxFieldLen {
		return nil, fmt.Errorf("field too long: %d", n)
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func corrupt(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCorruptFile, op, err)
}
