package protocol

import (
	"crypto/md5"
	"encoding/binary"
)

// checksumMultiplier: множитель свёртки FoldChecksum.
const checksumMultiplier = 1968

// RotateXOR обфусцирует пароль: каждый байт password XOR-ится с material
// и циклически сдвигается вправо на 5 бит.
// Длина результата: min(len(material), len(password)).
func RotateXOR(material, password []byte) []byte {
	out := make([]byte, min(len(material), len(password)))
	for i := range out {
		x := material[i] ^ password[i]
		out[i] = x<<3 | x>>5
	}
	return out
}

// FoldChecksum сворачивает data группами по 4 байта (в обратном порядке) через XOR,
// умножает аккумулятор на 1968 и возвращает младшие 4 байта произведения big-endian.
func FoldChecksum(data []byte) [4]byte {
	var sum [4]byte
	i := 0
	for ; i+3 < len(data); i += 4 {
		sum[0] ^= data[i+3]
		sum[1] ^= data[i+2]
		sum[2] ^= data[i+1]
		sum[3] ^= data[i]
	}

	// Хвост заполняет временный буфер с конца
	if i < len(data) {
		var tmp [4]byte
		for j := 3; i < len(data); j-- {
			tmp[j] = data[i]
			i++
		}
		for j := range sum {
			sum[j] ^= tmp[j]
		}
	}

	product := uint64(binary.LittleEndian.Uint32(sum[:])) * checksumMultiplier

	var out [4]byte
	binary.BigEndian.PutUint32(out[:], uint32(product))
	return out
}

// FoldCRC16 XOR-ит пары байт (младший, старший) в 32-битный аккумулятор.
// Нечётный последний байт игнорируется. Результат little-endian.
func FoldCRC16(data []byte) [4]byte {
	var sum uint32
	for i := 0; i+1 < len(data); i += 2 {
		sum ^= uint32(data[i+1])<<8 | uint32(data[i])
	}

	var out [4]byte
	binary.LittleEndian.PutUint32(out[:], sum)
	return out
}

// MD5A = md5(0x03, 0x01, salt, password).
func MD5A(salt [SaltSize]byte, password []byte) [DigestSize]byte {
	h := md5.New()
	h.Write([]byte{CodeLoginRequest, 0x01})
	h.Write(salt[:])
	h.Write(password)

	var out [DigestSize]byte
	h.Sum(out[:0])
	return out
}

// MD5B = md5(0x01, password, salt, 0x00000000).
func MD5B(salt [SaltSize]byte, password []byte) [DigestSize]byte {
	h := md5.New()
	h.Write([]byte{0x01})
	h.Write(password)
	h.Write(salt[:])
	h.Write([]byte{0x00, 0x00, 0x00, 0x00})

	var out [DigestSize]byte
	h.Sum(out[:0])
	return out
}

// md5cSuffix дописывается к первым 97 байтам login пакета.
var md5cSuffix = []byte{0x14, 0x00, 0x07, 0x0b}

// MD5C = md5(head, 0x14, 0x00, 0x07, 0x0b), где head: login[0:97].
// В пакет попадают только первые 8 байт.
func MD5C(head []byte) [DigestSize]byte {
	h := md5.New()
	h.Write(head)
	h.Write(md5cSuffix)

	var out [DigestSize]byte
	h.Sum(out[:0])
	return out
}
