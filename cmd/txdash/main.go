package main

import (
	"os"

	"txdash/internal/cli"
	"txdash/internal/config"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg := config.Load()
	// Logs go to stderr so command output stays pipeable.
	logger := cli.SetupLogger(cfg, os.Stderr)

	os.Exit(cli.Execute(&cli.App{
		Config: cfg,
		Logger: logger,
		In:     os.Stdin,
		Out:    os.Stdout,
	}))
}
