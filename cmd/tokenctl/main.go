package main

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	var defaults settings
	if err := env.Parse(&defaults); err != nil {
		fmt.Fprintf(os.Stderr, "invalid environment: %s\n", err)
		os.Exit(1)
	}
	if err := newRootCmd(defaults).Execute(); err != nil {
		os.Exit(1)
	}
}
