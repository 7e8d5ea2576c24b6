package codec

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/sergeii/go-url-shortener/pkg/url/alphabet"
)

var ErrInvalidToken = errors.New("invalid token")

// Encode переводит id в позиционную систему счисления с основанием, равным длине алфавита.
// Цифры записываются от старшей к младшей, 0 кодируется первым символом алфавита
func Encode(id uint64, a *alphabet.Alphabet) string {
	base := uint64(a.Len())
	if id == 0 {
		return string(a.At(0))
	}
	// остатки от деления получаются начиная с младшей цифры, поэтому заполняем буфер с конца
	var buf [64]rune
	pos := len(buf)
	for id > 0 {
		pos--
		buf[pos] = a.At(int(id % base))
		id /= base
	}
	return string(buf[pos:])
}

// Decode является обратной к Encode операцией.
// Токен, содержащий символы не из алфавита, либо не помещающийся в uint64, считается невалидным
func Decode(token string, a *alphabet.Alphabet) (uint64, error) {
	if token == "" {
		return 0, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}
	// range заменяет битые байты на U+FFFD, и разные строки могли бы дать один и тот же id
	if !utf8.ValidString(token) {
		return 0, fmt.Errorf("%w: token is not valid utf-8", ErrInvalidToken)
	}
	base := uint64(a.Len())
	var id uint64
	for i, r := range token {
		digit, ok := a.Index(r)
		if !ok {
			return 0, fmt.Errorf("%w: unknown symbol %q at position %d", ErrInvalidToken, r, i)
		}
		if id > (math.MaxUint64-uint64(digit))/base {
			return 0, fmt.Errorf("%w: value of %q overflows uint64", ErrInvalidToken, token)
		}
		id = id*base + uint64(digit)
	}
	return id, nil
}
