package shortener

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/sergeii/go-url-shortener/pkg/url/alphabet"
	"github.com/sergeii/go-url-shortener/pkg/url/codec"
)

var ErrInvalidConfiguration = errors.New("invalid token generator configuration")
var ErrAllocationFailed = errors.New("failed to allocate identifier")
var ErrNonMonotonicID = errors.New("allocator returned non-increasing identifier")
var ErrIdentifierOverflow = errors.New("identifier does not fit with offset")

// Allocator выдает уникальные строго возрастающие идентификаторы.
// Реализация должна быть безопасной для конкурентного использования
type Allocator interface {
	Allocate(ctx context.Context) (uint64, error)
}

type generatorConfig struct {
	offset    uint64
	minLength int
}

type Option func(*generatorConfig)

// WithOffset задает константу, прибавляемую к каждому идентификатору перед кодированием
func WithOffset(offset uint64) Option {
	return func(c *generatorConfig) {
		c.offset = offset
	}
}

// WithMinLength гарантирует, что любой токен будет не короче length символов
func WithMinLength(length int) Option {
	return func(c *generatorConfig) {
		c.minLength = length
	}
}

// Generator выдает короткие токены: получает у аллокатора очередной идентификатор,
// смещает его и записывает в системе счисления с перемешанным алфавитом
type Generator struct {
	allocator Allocator
	alphabet  *alphabet.Alphabet
	offset    uint64
	// наибольший идентификатор, полученный от аллокатора
	highest atomic.Uint64
	seen    atomic.Bool
}

func New(allocator Allocator, a *alphabet.Alphabet, opts ...Option) (*Generator, error) {
	if allocator == nil {
		return nil, fmt.Errorf("%w: allocator is required", ErrInvalidConfiguration)
	}
	if a == nil {
		return nil, fmt.Errorf("%w: alphabet is required", ErrInvalidConfiguration)
	}
	var cfg generatorConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	offset := cfg.offset
	if cfg.minLength != 0 {
		minOffset, err := OffsetForLength(a.Len(), cfg.minLength)
		if err != nil {
			return nil, err
		}
		if minOffset > offset {
			offset = minOffset
		}
	}
	return &Generator{
		allocator: allocator,
		alphabet:  a,
		offset:    offset,
	}, nil
}

// OffsetForLength возвращает наименьшее смещение, при котором
// даже нулевой идентификатор кодируется как минимум length символами: base^(length-1)
func OffsetForLength(base, length int) (uint64, error) {
	if base < 2 {
		return 0, fmt.Errorf("%w: base %d is too small", ErrInvalidConfiguration, base)
	}
	if length < 1 {
		return 0, fmt.Errorf("%w: min length must be positive, got %d", ErrInvalidConfiguration, length)
	}
	if length == 1 {
		return 0, nil
	}
	offset := uint64(1)
	for i := 1; i < length; i++ {
		if offset > math.MaxUint64/uint64(base) {
			return 0, fmt.Errorf("%w: min length %d is too large for base %d", ErrInvalidConfiguration, length, base)
		}
		offset *= uint64(base)
	}
	return offset, nil
}

// Next получает новый идентификатор и возвращает соответствующий ему токен.
// Каждый вызов расходует ровно один идентификатор; ошибки аллокатора, в том числе отмена контекста,
// возвращаются как есть, обернутые в ErrAllocationFailed, без повторных попыток
func (g *Generator) Next(ctx context.Context) (string, error) {
	// Запоминаем наибольший идентификатор, выданный до начала этого вызова.
	// Корректный аллокатор обязан вернуть значение больше него,
	// даже если параллельные вызовы завершатся в другом порядке
	floor, hasFloor := g.highest.Load(), g.seen.Load()
	id, err := g.allocator.Allocate(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAllocationFailed, err)
	}
	if hasFloor && id <= floor {
		return "", fmt.Errorf("%w: %w: got %d after %d", ErrAllocationFailed, ErrNonMonotonicID, id, floor)
	}
	g.observe(id)
	token, err := g.Token(id)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAllocationFailed, err)
	}
	return token, nil
}

// Token кодирует уже выданный идентификатор, не обращаясь к аллокатору
func (g *Generator) Token(id uint64) (string, error) {
	if id > math.MaxUint64-g.offset {
		return "", fmt.Errorf("%w: identifier %d overflows with offset %d", ErrIdentifierOverflow, id, g.offset)
	}
	return codec.Encode(id+g.offset, g.alphabet), nil
}

func (g *Generator) observe(id uint64) {
	for {
		current := g.highest.Load()
		if current >= id || g.highest.CompareAndSwap(current, id) {
			break
		}
	}
	g.seen.Store(true)
}

// Identifier восстанавливает идентификатор по токену, выданному Next.
// Токены не из алфавита генератора, с лишними ведущими символами или меньше смещения невалидны
func (g *Generator) Identifier(token string) (uint64, error) {
	value, err := codec.Decode(token, g.alphabet)
	if err != nil {
		return 0, err
	}
	if codec.Encode(value, g.alphabet) != token {
		return 0, fmt.Errorf("%w: %q is not in canonical form", codec.ErrInvalidToken, token)
	}
	if value < g.offset {
		return 0, fmt.Errorf("%w: %q is below offset", codec.ErrInvalidToken, token)
	}
	return value - g.offset, nil
}

// Alphabet возвращает перемешанный алфавит, которым кодируются токены
func (g *Generator) Alphabet() *alphabet.Alphabet {
	return g.alphabet
}

func (g *Generator) Offset() uint64 {
	return g.offset
}
