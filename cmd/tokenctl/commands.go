package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type alphabetInfo struct {
	Canonical string `yaml:"canonical"`
	Permuted  string `yaml:"permuted"`
	Base      int    `yaml:"base"`
	Offset    uint64 `yaml:"offset"`
}

type tokenInfo struct {
	Identifier uint64 `yaml:"identifier"`
	Token      string `yaml:"token"`
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func newAlphabetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "alphabet",
		Short: "Print the permuted alphabet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := newGenerator(opts)
			if err != nil {
				return err
			}
			info := alphabetInfo{
				Canonical: opts.TokenAlphabet,
				Permuted:  gen.Alphabet().String(),
				Base:      gen.Alphabet().Len(),
				Offset:    gen.Offset(),
			}
			if opts.Output == "yaml" {
				return writeYAML(cmd.OutOrStdout(), info)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), info.Permuted)
			return err
		},
	}
}

func newEncodeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <identifier>...",
		Short: "Print tokens for allocated identifiers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := newGenerator(opts)
			if err != nil {
				return err
			}
			items := make([]tokenInfo, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseUint(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid identifier %q: %w", arg, err)
				}
				token, err := gen.Token(id)
				if err != nil {
					return err
				}
				items = append(items, tokenInfo{Identifier: id, Token: token})
			}
			return printTokens(cmd.OutOrStdout(), opts.Output, items, false)
		},
	}
}

func newDecodeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <token>...",
		Short: "Print identifiers the tokens were issued for",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := newGenerator(opts)
			if err != nil {
				return err
			}
			items := make([]tokenInfo, 0, len(args))
			for _, token := range args {
				id, err := gen.Identifier(token)
				if err != nil {
					return err
				}
				items = append(items, tokenInfo{Identifier: id, Token: token})
			}
			return printTokens(cmd.OutOrStdout(), opts.Output, items, true)
		},
	}
}

func printTokens(w io.Writer, output string, items []tokenInfo, identifiers bool) error {
	if output == "yaml" {
		return writeYAML(w, items)
	}
	for _, item := range items {
		var err error
		if identifiers {
			_, err = fmt.Fprintln(w, item.Identifier)
		} else {
			_, err = fmt.Fprintln(w, item.Token)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
