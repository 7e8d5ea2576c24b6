package alphabet_test

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"testing"

	"github.com/sergeii/go-url-shortener/pkg/url/alphabet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAlphabet(t *testing.T) {
	tests := []struct {
		name    string
		symbols string
		isErr   bool
	}{
		{
			name:    "base62",
			symbols: alphabet.Base62,
		},
		{
			name:    "binary",
			symbols: "01",
		},
		{
			name:    "unicode symbols",
			symbols: "αβγδ",
		},
		{
			name:    "empty",
			symbols: "",
			isErr:   true,
		},
		{
			name:    "single symbol",
			symbols: "a",
			isErr:   true,
		},
		{
			name:    "duplicate symbols",
			symbols: "abca",
			isErr:   true,
		},
		{
			name:    "invalid utf-8",
			symbols: "ab\xff",
			isErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := alphabet.New(tt.symbols)
			if tt.isErr {
				assert.ErrorIs(t, err, alphabet.ErrInvalidAlphabet)
				assert.Nil(t, a)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.symbols, a.String())
				assert.Equal(t, len([]rune(tt.symbols)), a.Len())
			}
		})
	}
}

func TestAlphabetIndex(t *testing.T) {
	a := alphabet.MustNew(alphabet.Base62)
	for pos, r := range alphabet.Base62 {
		got, ok := a.Index(r)
		assert.True(t, ok)
		assert.Equal(t, pos, got)
		assert.Equal(t, r, a.At(pos))
	}
	_, ok := a.Index('-')
	assert.False(t, ok)
}

func TestMustNewPanicsOnInvalidAlphabet(t *testing.T) {
	assert.Panics(t, func() {
		alphabet.MustNew("aa")
	})
}

func TestPermuteIsDeterministic(t *testing.T) {
	canonical := alphabet.MustNew(alphabet.Base62)
	for _, key := range []string{"default_secret", "s", "another secret key", strings.Repeat("x", 1000)} {
		first, err := alphabet.Permute([]byte(key), canonical)
		require.NoError(t, err)
		second, err := alphabet.Permute([]byte(key), canonical)
		require.NoError(t, err)
		assert.Equal(t, first.String(), second.String())
		assert.True(t, first.Equal(second))
	}
}

func TestPermuteProducesPermutation(t *testing.T) {
	canonical := alphabet.MustNew(alphabet.Base62)
	permuted, err := alphabet.Permute([]byte("default_secret"), canonical)
	require.NoError(t, err)

	sorted := func(s string) string {
		runes := []rune(s)
		sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
		return string(runes)
	}
	assert.Equal(t, canonical.Len(), permuted.Len())
	assert.Equal(t, sorted(canonical.String()), sorted(permuted.String()))
	assert.False(t, permuted.Equal(canonical))
	// исходный алфавит не должен меняться
	assert.Equal(t, alphabet.Base62, canonical.String())
}

func TestPermuteDistinctKeysGiveDistinctOrderings(t *testing.T) {
	canonical := alphabet.MustNew(alphabet.Base62)
	seen := make(map[string]string)
	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("key-%d", i)
		permuted, err := alphabet.Permute([]byte(key), canonical)
		require.NoError(t, err)
		ordering := permuted.String()
		assert.NotEqual(t, alphabet.Base62, ordering)
		prevKey, dup := seen[ordering]
		assert.False(t, dup, "keys %s and %s produced the same ordering", prevKey, key)
		seen[ordering] = key
	}
}

func TestPermuteSmallAlphabet(t *testing.T) {
	canonical := alphabet.MustNew("ab")
	permuted, err := alphabet.Permute([]byte("key"), canonical)
	require.NoError(t, err)
	assert.Contains(t, []string{"ab", "ba"}, permuted.String())
}

func TestPermuteRequiresKey(t *testing.T) {
	canonical := alphabet.MustNew(alphabet.Base62)
	_, err := alphabet.Permute(nil, canonical)
	assert.ErrorIs(t, err, alphabet.ErrEmptySecretKey)
	_, err = alphabet.Permute([]byte{}, canonical)
	assert.ErrorIs(t, err, alphabet.ErrEmptySecretKey)
	_, err = alphabet.Permute([]byte("key"), nil)
	assert.ErrorIs(t, err, alphabet.ErrInvalidAlphabet)
}

// TestPermuteHelperProcess не является тестом сам по себе:
// он печатает перемешанный алфавит, будучи запущенным из TestPermuteIsStableAcrossProcesses
func TestPermuteHelperProcess(t *testing.T) {
	if os.Getenv("ALPHABET_HELPER_PROCESS") != "1" {
		return
	}
	permuted, err := alphabet.Permute([]byte(os.Getenv("ALPHABET_HELPER_KEY")), alphabet.MustNew(alphabet.Base62))
	if err != nil {
		fmt.Fprint(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Fprint(os.Stdout, permuted.String())
	os.Exit(0)
}

func TestPermuteIsStableAcrossProcesses(t *testing.T) {
	key := "default_secret"
	expected, err := alphabet.Permute([]byte(key), alphabet.MustNew(alphabet.Base62))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		cmd := exec.Command(os.Args[0], "-test.run=^TestPermuteHelperProcess$")
		cmd.Env = append(os.Environ(), "ALPHABET_HELPER_PROCESS=1", "ALPHABET_HELPER_KEY="+key)
		out, err := cmd.Output()
		require.NoError(t, err)
		assert.Equal(t, expected.String(), string(out))
	}
}
