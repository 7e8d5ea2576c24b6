package alphabet

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Base62 - каноничный набор символов для коротких ссылок: цифры, строчные и прописные латинские буквы
const Base62 = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const minSize = 2

var ErrInvalidAlphabet = errors.New("invalid alphabet")

// Alphabet - упорядоченный набор уникальных символов, позиция символа в котором является значением цифры.
// После создания не изменяется, поэтому может свободно читаться из нескольких горутин
type Alphabet struct {
	symbols []rune
	index   map[rune]int
}

// New проверяет набор символов и строит по нему алфавит.
// Повторяющиеся символы, невалидный UTF-8 и алфавиты короче двух символов не допускаются
func New(symbols string) (*Alphabet, error) {
	if !utf8.ValidString(symbols) {
		return nil, fmt.Errorf("%w: not a valid utf-8 string", ErrInvalidAlphabet)
	}
	return fromRunes([]rune(symbols))
}

// MustNew аналогичен New, но паникует в случае ошибки. Предназначен для констант вроде Base62
func MustNew(symbols string) *Alphabet {
	a, err := New(symbols)
	if err != nil {
		panic(err)
	}
	return a
}

func fromRunes(symbols []rune) (*Alphabet, error) {
	if len(symbols) < minSize {
		return nil, fmt.Errorf("%w: got %d symbols, need at least %d", ErrInvalidAlphabet, len(symbols), minSize)
	}
	index := make(map[rune]int, len(symbols))
	for pos, r := range symbols {
		if prev, dup := index[r]; dup {
			return nil, fmt.Errorf("%w: symbol %q repeats at positions %d and %d", ErrInvalidAlphabet, r, prev, pos)
		}
		index[r] = pos
	}
	return &Alphabet{symbols: symbols, index: index}, nil
}

// Len возвращает основание системы счисления, задаваемой алфавитом
func (a *Alphabet) Len() int {
	return len(a.symbols)
}

// At возвращает символ, соответствующий цифре pos
func (a *Alphabet) At(pos int) rune {
	return a.symbols[pos]
}

// Index возвращает значение цифры для символа r, либо false, если символа в алфавите нет
func (a *Alphabet) Index(r rune) (int, bool) {
	pos, ok := a.index[r]
	return pos, ok
}

func (a *Alphabet) String() string {
	return string(a.symbols)
}

// Equal сообщает, совпадают ли алфавиты посимвольно, включая порядок
func (a *Alphabet) Equal(other *Alphabet) bool {
	if a.Len() != other.Len() {
		return false
	}
	for i, r := range a.symbols {
		if other.symbols[i] != r {
			return false
		}
	}
	return true
}
