// Package cli holds the cobra commands behind the pipeline binaries.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/devraulu/martiball/pkg/browser"
	"github.com/devraulu/martiball/pkg/config"
	"github.com/devraulu/martiball/pkg/logger"
	"github.com/devraulu/martiball/pkg/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1

	DefaultConfigFile = "config.toml"
)

// Run executes cmd and cancels it on SIGINT, SIGTERM or SIGQUIT. It returns
// the process exit code.
func Run(cmd *cobra.Command) int {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	appSignal := make(chan os.Signal, 1)
	signal.Notify(appSignal, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(appSignal)

	var (
		wg  sync.WaitGroup
		err error
	)
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		err = cmd.ExecuteContext(ctx)
	}()

	select {
	case s := <-appSignal:
		slog.Info("received system signal", slog.String("signal", s.String()))
		stop()
	case <-done:
	}

	wg.Wait()
	if err != nil {
		slog.Error("fatal", slog.String("command", cmd.Name()), slog.Any("err", err))
		return ExitError
	}
	slog.Info("shutdown complete")
	return ExitSuccess
}

// common carries the flags every command has.
type common struct {
	configPath string
}

func (c *common) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.configPath, "config", DefaultConfigFile, "TOML config file (missing file means defaults)")
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
}

// setup loads .env and the config file and installs the logger for stage.
func (c *common) setup(stage string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", c.configPath, err)
	}
	logger.InitLogger(cfg, stage)
	return cfg, nil
}

// override copies v into dst if the flag was given on the command line.
func override[T any](cmd *cobra.Command, flag string, dst *T, v T) {
	if cmd.Flags().Changed(flag) {
		*dst = v
	}
}

// outputPath is file if set, else name inside dir. The parent directory is created.
func outputPath(file, dir, name string) (string, error) {
	path := file
	if path == "" {
		if dir == "" {
			dir = "."
		}
		path = filepath.Join(dir, name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, nil
}

// firstExisting returns the first path that exists.
func firstExisting(paths ...string) (string, error) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("input not found (checked %v): %w", paths, fs.ErrNotExist)
}

func newChrome(cfg *config.Config) *browser.Chrome {
	return browser.NewChrome(browser.Options{
		Headless:        cfg.Browser.Headless,
		ExecPath:        cfg.Browser.ExecPath,
		UserAgent:       cfg.Browser.UserAgent,
		PageLoadTimeout: cfg.Browser.GetPageLoadTimeout(),
	})
}

// openMirror connects the optional Postgres mirror. The DSN comes from the
// config or $DATABASE_URL; without one there is no mirror.
func openMirror(cfg *config.Config) (*storage.PostgresStorage, error) {
	dsn := cfg.Storage.DSN
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return nil, nil
	}
	pg, err := storage.OpenPostgres(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres mirror: %w", err)
	}
	slog.Info("mirroring to postgres")
	return pg, nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
