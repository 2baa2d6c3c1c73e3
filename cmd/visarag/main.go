// Command visarag builds and serves retrieval over visa policy documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/swiftvisa/visarag/internal/adapters/driven/config/file"
	"github.com/swiftvisa/visarag/internal/adapters/driving/cli"
	"github.com/swiftvisa/visarag/internal/logger"
)

// version is set at link time with -ldflags "-X main.version=...".
var version = "dev"

// configEnv names an explicit config file, overriding ~/.visarag/config.toml.
const configEnv = "VISARAG_CONFIG"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Ignoring .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configStore, err := openConfig(os.Getenv(configEnv))
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	deps, cleanup, err := wire(configStore)
	if err != nil {
		return err
	}
	defer cleanup()

	cli.SetVersion(version)
	cli.SetDependencies(deps)
	return cli.Execute(ctx)
}

func openConfig(path string) (*file.ConfigStore, error) {
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		return file.Open(abs)
	}
	return file.NewConfigStore("")
}
