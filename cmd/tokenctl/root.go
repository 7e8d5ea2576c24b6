package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sergeii/go-url-shortener/allocator"
	"github.com/sergeii/go-url-shortener/pkg/url/alphabet"
	"github.com/sergeii/go-url-shortener/pkg/url/shortener"
)

var errUnknownOutput = errors.New("unknown output format")

// settings совпадают с настройками сервиса, чтобы tokenctl по умолчанию
// работал с тем же алфавитом и смещением, что и запущенный рядом shortener
type settings struct {
	SecretKey      string `env:"SECRET_KEY"`
	TokenAlphabet  string `env:"TOKEN_ALPHABET" envDefault:"0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"` // nolint:lll
	TokenOffset    uint64 `env:"TOKEN_OFFSET" envDefault:"14000000"`
	MinTokenLength int    `env:"MIN_TOKEN_LENGTH"`
}

type options struct {
	settings
	Output string
}

func newRootCmd(defaults settings) *cobra.Command {
	opts := options{settings: defaults, Output: "text"}
	rootCmd := &cobra.Command{
		Use:   "tokenctl",
		Short: "Inspect short URL tokens",
		Long: `tokenctl reproduces the token encoding of the shortener service offline.

The secret key, alphabet and offset default to SECRET_KEY, TOKEN_ALPHABET,
TOKEN_OFFSET and MIN_TOKEN_LENGTH, so a .env shared with the service is enough.

Examples:
  # Show the permuted alphabet
  tokenctl alphabet --key s3cr3t

  # Which token was issued for identifier 42?
  tokenctl encode 42

  # Which identifier does a token belong to?
  tokenctl decode WK2s --output yaml`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Output != "text" && opts.Output != "yaml" {
				return fmt.Errorf("%w: %s", errUnknownOutput, opts.Output)
			}
			return nil
		},
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.SecretKey, "key", "k", opts.SecretKey, "Secret key the alphabet is permuted with")
	flags.StringVarP(&opts.TokenAlphabet, "alphabet", "a", opts.TokenAlphabet, "Canonical token alphabet")
	flags.Uint64Var(&opts.TokenOffset, "offset", opts.TokenOffset, "Constant added to every identifier")
	flags.IntVar(&opts.MinTokenLength, "min-length", opts.MinTokenLength, "Minimal token length")
	flags.StringVarP(&opts.Output, "output", "o", opts.Output, "Output format: text|yaml")

	rootCmd.AddCommand(
		newAlphabetCmd(&opts),
		newEncodeCmd(&opts),
		newDecodeCmd(&opts),
	)
	return rootCmd
}

// newGenerator собирает генератор так же, как это делает сервис.
// Аллокатор ему не нужен: tokenctl только кодирует и декодирует уже известные значения
func newGenerator(opts *options) (*shortener.Generator, error) {
	canonical, err := alphabet.New(opts.TokenAlphabet)
	if err != nil {
		return nil, err
	}
	permuted, err := alphabet.Permute([]byte(opts.SecretKey), canonical)
	if err != nil {
		return nil, err
	}
	return shortener.New(
		allocator.NewLocmemAllocatorBackend(0), permuted,
		shortener.WithOffset(opts.TokenOffset),
		shortener.WithMinLength(opts.MinTokenLength),
	)
}
