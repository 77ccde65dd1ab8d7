package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rbx/internal/library"
	"github.com/desertthunder/rbx/internal/shared"
	"github.com/desertthunder/rbx/internal/source"
)

// Opener opens the library handle described by a config.
type Opener func(ctx context.Context, cfg *shared.Config, logger *log.Logger) (*library.Library, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	open       Opener
	lib        *library.Library
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Opener     Opener
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Opener == nil {
		opts.Opener = OpenLibrary
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		open:       opts.Opener,
	}
}

// OpenLibrary resolves the configured library path and opens it.
//
// An empty path is auto-detected when library.auto_detect is set. Paths ending in .xml are always read as XML.
func OpenLibrary(ctx context.Context, cfg *shared.Config, logger *log.Logger) (*library.Library, error) {
	var (
		path string
		err  error
	)
	switch {
	case cfg.Library.Path != "":
		path, err = shared.ResolveLibraryPath(cfg.Library.Path)
	case cfg.Library.AutoDetect:
		path, err = shared.DetectLibraryPath()
	default:
		return nil, fmt.Errorf("%w: library.path is not set", shared.ErrMissingConfig)
	}
	if err != nil {
		return nil, err
	}

	kind := cfg.Library.Source
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		kind = source.KindXML
	}

	src, err := source.Open(kind, path)
	if err != nil {
		return nil, err
	}
	if s, ok := src.(*source.SQLite); ok {
		shared.ConfigureDatabase(s.DB(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	}

	lib, err := library.Open(ctx, src, library.Options{Logger: logger, Backup: cfg.Library.BackupEnabled})
	if err != nil {
		src.Close()
		return nil, err
	}
	return lib, nil
}

// Before loads the config file, when present, and applies the global flag overrides.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return ctx, err
			}
			r.config = config
			r.logger.Debug("config loaded", "path", path)
		}
	}

	if lib := cmd.String("library"); lib != "" {
		r.config.Library.Path = lib
	}
	if level := cmd.String("log-level"); level != "" {
		r.config.Logging.Level = level
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(r.config.Logging.Level))
	return ctx, nil
}

// After releases the library handle if a command opened one.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

// Close releases the library handle. Safe to call more than once.
func (r *Runner) Close() error {
	if r.lib == nil {
		return nil
	}
	err := r.lib.Close()
	r.lib = nil
	return err
}

// library opens the library on first use and reuses the handle afterwards.
func (r *Runner) library(ctx context.Context) (*library.Library, error) {
	if r.lib != nil {
		return r.lib, nil
	}
	lib, err := r.open(ctx, r.config, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	r.lib = lib
	return lib, nil
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, tracksCommand, playlistsCommand, libraryCommand,
		rateCommand, playsCommand, exportCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// emit writes data as JSON when --json is set and calls plain otherwise.
func (r *Runner) emit(cmd *cli.Command, data any, plain func() error) error {
	if cmd.Bool("json") {
		return r.writeJSON(data, cmd.Bool("pretty"))
	}
	return plain()
}
