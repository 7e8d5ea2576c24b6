package alphabet

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20"
)

var ErrEmptySecretKey = errors.New("secret key must not be empty")

// Permute детерминированно перемешивает алфавит canonical, используя секретный ключ.
// Один и тот же ключ всегда дает один и тот же порядок символов на любой машине и в любом процессе,
// что позволяет нескольким инстансам сервиса выдавать согласованные короткие ссылки.
//
// Хэш ключа (BLAKE2b-256) используется как ключ потока ChaCha20 (RFC 8439) с нулевым nonce,
// из которого берутся решения для перестановки Фишера-Йетса.
// Перемешивание затрудняет угадывание соседних ссылок, но не является криптографической гарантией
func Permute(secretKey []byte, canonical *Alphabet) (*Alphabet, error) {
	if len(secretKey) == 0 {
		return nil, ErrEmptySecretKey
	}
	if canonical == nil {
		return nil, fmt.Errorf("%w: no alphabet to permute", ErrInvalidAlphabet)
	}
	stream, err := newKeystream(secretKey)
	if err != nil {
		return nil, err
	}
	symbols := make([]rune, canonical.Len())
	copy(symbols, canonical.symbols)
	for i := len(symbols) - 1; i > 0; i-- {
		j := stream.intn(uint32(i + 1))
		symbols[i], symbols[j] = symbols[j], symbols[i]
	}
	// символы уже проверены при создании canonical, но индекс нужно построить заново
	return fromRunes(symbols)
}

type keystream struct {
	cipher *chacha20.Cipher
	buf    [4]byte
}

func newKeystream(secretKey []byte) (*keystream, error) {
	seed := blake2b.Sum256(secretKey)
	var nonce [chacha20.NonceSize]byte
	cipher, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		return nil, fmt.Errorf("unable to init keystream due to %w", err)
	}
	return &keystream{cipher: cipher}, nil
}

func (s *keystream) uint32() uint32 {
	s.buf = [4]byte{}
	s.cipher.XORKeyStream(s.buf[:], s.buf[:])
	return binary.LittleEndian.Uint32(s.buf[:])
}

// intn возвращает равномерно распределенное число из [0, n).
// Значения ниже порога отбрасываются, чтобы остаток от деления не смещал распределение
func (s *keystream) intn(n uint32) uint32 {
	threshold := -n % n
	for {
		v := s.uint32()
		if v >= threshold {
			return v % n
		}
	}
}
