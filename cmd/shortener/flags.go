package main

import (
	"flag"
	"net/url"

	"github.com/sergeii/go-url-shortener/internal/app"
)

type flagConfig struct {
	BaseURL         string
	ServerAddress   string
	FileStoragePath string
	CounterFilePath string
	DatabaseDSN     string
}

// withFlags разбирает аргументы командной строки.
// Указанные значения настроек из CLI-аргументов имеют преимущество перед одноименными environment переменными
func withFlags(args []string) app.Override {
	return func(cfg *app.Config) error {
		var fc flagConfig
		fs := flag.NewFlagSet("shortener", flag.ContinueOnError)
		fs.StringVar(&fc.ServerAddress, "a", "", "Server listen address in the form of host:port")
		fs.StringVar(&fc.BaseURL, "b", "", "Base URL for short links")
		fs.StringVar(&fc.FileStoragePath, "f", "", "File path to persistent URL database storage")
		fs.StringVar(&fc.CounterFilePath, "c", "", "File path to persistent identifier counter")
		fs.StringVar(&fc.DatabaseDSN, "d", "", "Database connection DSN")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fc.BaseURL != "" {
			u, err := url.Parse(fc.BaseURL)
			if err != nil {
				return err
			}
			cfg.BaseURL = u
		}
		if fc.ServerAddress != "" {
			cfg.ServerAddress = fc.ServerAddress
		}
		if fc.FileStoragePath != "" {
			cfg.FileStoragePath = fc.FileStoragePath
		}
		if fc.CounterFilePath != "" {
			cfg.CounterFilePath = fc.CounterFilePath
		}
		if fc.DatabaseDSN != "" {
			cfg.DatabaseDSN = fc.DatabaseDSN
		}
		return nil
	}
}
