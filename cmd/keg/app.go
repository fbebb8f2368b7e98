// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/gammamatrix/homebrew-apache/internal/app/pipeline"
	"github.com/gammamatrix/homebrew-apache/internal/cellar"
	"github.com/gammamatrix/homebrew-apache/internal/config"
	"github.com/gammamatrix/homebrew-apache/internal/install"
	"github.com/gammamatrix/homebrew-apache/internal/receipt"
	"github.com/gammamatrix/homebrew-apache/pkg/formula"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer; all Cobra command handlers receive an App reference.
	App struct {
		Config ConfigProvider
		FS     afero.Fs
		Runner install.Runner
		stdout io.Writer
		stderr io.Writer

		// Set from persistent flags.
		configPath string
		verbose    bool

		logger *log.Logger
		cfg    *config.Config
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp. Tests can supply in-memory
	// filesystems and fake runners to keep the host untouched.
	Dependencies struct {
		Config ConfigProvider
		FS     afero.Fs
		Runner install.Runner
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	// This abstraction enables testing with custom config sources or mock implementations.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// session holds the services derived from one loaded configuration.
	session struct {
		fs       afero.Fs
		cfg      *config.Config
		cellar   *cellar.Cellar
		catalog  *formula.Catalog
		runner   install.Runner
		pipeline *pipeline.Pipeline
		store    *receipt.Store
	}
)

// NewApp creates an App, filling nil dependencies with production defaults.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.FS == nil {
		deps.FS = afero.NewOsFs()
	}
	if deps.Runner == nil {
		deps.Runner = &install.ExecRunner{Stdout: deps.Stdout, Stderr: deps.Stderr}
	}

	logger := log.NewWithOptions(deps.Stderr, log.Options{
		Prefix: "keg",
		Level:  log.WarnLevel,
	})

	return &App{
		Config: deps.Config,
		FS:     deps.FS,
		Runner: deps.Runner,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
		logger: logger,
	}, nil
}

// installLogger routes log/slog through the charmbracelet logger.
func (a *App) installLogger() {
	if a.verbose {
		a.logger.SetLevel(log.DebugLevel)
	}
	slog.SetDefault(slog.New(a.logger))
}

// config loads the configuration once per invocation.
func (a *App) config(ctx context.Context) (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}

	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
	if err != nil {
		return nil, err
	}

	if cfg.UI.Verbose && !a.verbose {
		a.verbose = true
		a.logger.SetLevel(log.DebugLevel)
	}
	if f, ok := a.stdout.(*os.File); ok {
		applyColorMode(cfg.UI.Color, f)
	} else {
		applyColorMode(cfg.UI.Color, nil)
	}

	slog.Debug("configuration loaded", "source", cfg.Source, "prefix", cfg.Prefix)
	a.cfg = cfg
	return cfg, nil
}

// open builds the services for one command. It writes nothing; callers
// must Close the session.
func (a *App) open(ctx context.Context) (*session, error) {
	cfg, err := a.config(ctx)
	if err != nil {
		return nil, err
	}

	c := cellar.New(a.FS, cfg.Prefix, cellar.WithCellar(cfg.Cellar), cellar.WithSDK(cfg.SDKPath))
	return &session{
		fs:       a.FS,
		cfg:      cfg,
		cellar:   c,
		catalog:  formula.NewCatalog(a.FS, cfg.FormulaPaths...),
		runner:   a.Runner,
		pipeline: pipeline.New(a.FS, c, a.Runner, nil),
	}, nil
}

// openStore opens the receipt database and attaches it to the pipeline.
// It creates the state directory, so callers plan first.
func (s *session) openStore() error {
	store, err := receipt.Open(s.cfg.ReceiptPath())
	if err != nil {
		return err
	}
	s.store = store
	s.pipeline = pipeline.New(s.fs, s.cellar, s.runner, store)
	return nil
}

// Close releases the receipt store, if open.
func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// loadFormula reads the formula from file when set, otherwise from the
// catalog by name.
func (s *session) loadFormula(args []string, file string) (*formula.Formula, error) {
	switch {
	case file != "":
		return formula.ParseFile(s.fs, file)
	case len(args) > 0:
		return s.catalog.Load(args[0])
	default:
		return nil, errNoFormula
	}
}

var errNoFormula = errors.New("no formula given; pass a name or --file")
