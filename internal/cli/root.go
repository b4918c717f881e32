// Package cli wires the command tree: process options, logging and the
// tray and headless runners.
package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pomodoro/internal/core/activity"
	"pomodoro/internal/storage"
	"pomodoro/internal/tracing"
)

const (
	appName   = "pomodoro"
	envPrefix = "POMODORO"
)

var version = "dev"

// Option keys, shared by flags, environment and viper.
const (
	keyEnvFile      = "env-file"
	keyLogLevel     = "log-level"
	keyLogFile      = "log-file"
	keySettings     = "settings"
	keyNoWatch      = "no-watch"
	keyTickInterval = "tick-interval"
	keyIdlePoll     = "idle-poll"
	keyFeedAddr     = "feed-addr"
	keyTraceExport  = "trace-exporter"
	keyTraceFile    = "trace-file"
	keyOTLPEndpoint = "otlp-endpoint"
)

// Options are the resolved process options.
type Options struct {
	LogLevel     string
	LogFile      string
	SettingsPath string
	Watch        bool
	TickInterval time.Duration
	IdlePoll     time.Duration
	FeedAddr     string
	Tracing      tracing.Config
}

type application struct {
	config  *viper.Viper
	options Options
	logger  *slog.Logger
	closers []io.Closer
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// SetVersion sets the version string reported by --version.
func SetVersion(v string) {
	version = v
}

// NewRootCommand builds the command tree. Running it without a subcommand
// starts the tray.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&application{config: viper.New()})
}

func newRootCommand(app *application) *cobra.Command {
	root := &cobra.Command{
		Use:               appName,
		Short:             "A pomodoro timer that pauses itself when you step away",
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: app.setup,
		PersistentPostRun: func(*cobra.Command, []string) { app.teardown() },
		RunE:              app.runTray,
	}

	flags := root.PersistentFlags()
	flags.String(keyEnvFile, ".env", "dotenv file read before the environment")
	flags.String(keyLogLevel, "info", "log level: debug, info, warn or error")
	flags.String(keyLogFile, "", "also write logs to this file")
	flags.String(keySettings, "", "settings file, .yaml or .toml (default: <config dir>/Pomodoro/settings.yaml)")
	flags.Bool(keyNoWatch, false, "do not reload the settings file when it changes")
	flags.Duration(keyTickInterval, time.Second, "countdown ticker period")
	flags.Duration(keyIdlePoll, activity.DefaultPollInterval, "idle time sampling period")
	flags.String(keyTraceExport, tracing.ExporterNone, "span exporter: none, stdout, file or otlp")
	flags.String(keyTraceFile, "", "span file for the file exporter")
	flags.String(keyOTLPEndpoint, "localhost:4317", "collector endpoint for the otlp exporter")
	_ = app.config.BindPFlags(flags)

	app.config.SetEnvPrefix(envPrefix)
	app.config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	app.config.AutomaticEnv()

	root.AddCommand(
		newTrayCommand(app),
		newRunCommand(app),
		newSettingsCommand(app),
	)
	return root
}

func (app *application) setup(cmd *cobra.Command, _ []string) error {
	if err := loadEnvFile(app.config.GetString(keyEnvFile)); err != nil {
		return err
	}

	options, err := app.resolveOptions()
	if err != nil {
		return err
	}
	app.options = options

	logger, closer, err := newLogger(cmd.ErrOrStderr(), options.LogLevel, options.LogFile)
	if err != nil {
		return err
	}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}
	app.logger = logger
	slog.SetDefault(logger)
	return nil
}

func (app *application) teardown() {
	for _, closer := range app.closers {
		_ = closer.Close()
	}
	app.closers = nil
}

func (app *application) resolveOptions() (Options, error) {
	config := app.config
	options := Options{
		LogLevel:     config.GetString(keyLogLevel),
		LogFile:      config.GetString(keyLogFile),
		SettingsPath: config.GetString(keySettings),
		Watch:        !config.GetBool(keyNoWatch),
		TickInterval: config.GetDuration(keyTickInterval),
		IdlePoll:     config.GetDuration(keyIdlePoll),
		FeedAddr:     config.GetString(keyFeedAddr),
		Tracing: tracing.Config{
			Exporter:     config.GetString(keyTraceExport),
			FilePath:     config.GetString(keyTraceFile),
			OTLPEndpoint: config.GetString(keyOTLPEndpoint),
			ServiceName:  appName,
		},
	}

	if options.SettingsPath == "" {
		path, err := storage.DefaultPath()
		if err != nil {
			return options, err
		}
		options.SettingsPath = path
	}
	if options.Tracing.Exporter == tracing.ExporterFile && options.Tracing.FilePath == "" {
		options.Tracing.FilePath = filepath.Join(filepath.Dir(options.SettingsPath), "traces.json")
	}
	if options.TickInterval <= 0 {
		return options, fmt.Errorf("resolve options: %s must be positive", keyTickInterval)
	}
	return options, nil
}

// loadEnvFile loads path into the environment without overriding it. A
// missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func newLogger(stderr io.Writer, level, file string) (*slog.Logger, io.Closer, error) {
	var slogLevel slog.Level
	if err := slogLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	var (
		out    = stderr
		closer io.Closer
	)
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		logFile, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(stderr, logFile)
		closer = logFile
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: slogLevel})
	return slog.New(handler).With("app", appName), closer, nil
}
