package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jacoelho/xsdmodel/internal/config"
	"github.com/jacoelho/xsdmodel/internal/model"
	"github.com/jacoelho/xsdmodel/internal/registry"
)

// app holds what every command needs: configuration, logger and the
// registry over the catalog root.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	root       string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	reg    *registry.Registry
}

func rootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	cmd := &cobra.Command{
		Use:           "xsdmodel",
		Short:         "Inspect and edit XML Schema sets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default "+config.FileName+" when present)")
	cmd.PersistentFlags().StringVar(&a.root, "root", "", "catalog root directory, overrides the config")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		inspectCmd(a),
		globalsCmd(a),
		refsCmd(a),
		renameCmd(a),
		watchCmd(a),
	)
	return cmd
}

func (a *app) setup() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if a.root != "" {
		cfg.Catalog.Root = a.root
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg

	level, _ := cfg.Level()
	if a.verbose {
		level = zapcore.DebugLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	a.logger = logger

	reg, err := registry.New(registry.Options{
		FS:          os.DirFS(cfg.Catalog.Root),
		Catalog:     cfg.Catalog.Entries,
		NegativeTTL: cfg.Cache.NegativeTTL,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	a.reg = reg
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		return config.LoadFromFile(a.configPath)
	}
	cfg, err := config.LoadFromFile(config.FileName)
	if errors.Is(err, fs.ErrNotExist) {
		return config.DefaultConfig(), nil
	}
	return cfg, err
}

func (a *app) close() {
	if a.reg != nil {
		a.reg.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// load returns the model for a location relative to the catalog root and
// fails when the document is not well formed.
func (a *app) load(ctx context.Context, location string) (*model.Model, error) {
	m, err := a.reg.Load(ctx, filepath.ToSlash(location))
	if err != nil {
		return nil, err
	}
	if !m.Valid() {
		return nil, fmt.Errorf("%s: %w", location, m.Document().LastError())
	}
	return m, nil
}

// loadSet loads the configured schema set, or the given patterns.
func (a *app) loadSet(ctx context.Context, patterns []string) ([]*model.Model, error) {
	if len(patterns) == 0 {
		patterns = a.cfg.Catalog.Schemas
	}
	return a.reg.LoadGlob(ctx, patterns...)
}

func (a *app) printf(format string, args ...any) error {
	return writef(a.stdout, format, args...)
}
