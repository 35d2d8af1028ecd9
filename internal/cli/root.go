package cli

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tunelab/internal/common/fsutil"
	"tunelab/internal/config"
)

// Options customizes the command tree. Zero values use the process
// environment and standard streams.
type Options struct {
	Out      io.Writer
	Err      io.Writer
	Getenv   func(string) string
	Prompter Prompter
}

// NewRootCmd builds the tunelab command tree.
func NewRootCmd(opts Options) *cobra.Command {
	a := &app{out: opts.Out, errOut: opts.Err, getenv: opts.Getenv, prompter: opts.Prompter}
	if a.out == nil {
		a.out = os.Stdout
	}
	if a.errOut == nil {
		a.errOut = os.Stderr
	}
	if a.getenv == nil {
		a.getenv = os.Getenv
	}

	root := &cobra.Command{
		Use:           "tunelab",
		Short:         "Fine-tuning control panel for a remote training service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "Config file (.yaml, .yml, .json, .toml)")
	pf.StringVar(&a.apiURL, "api-url", "", "Training service base URL (defaults TUNELAB_API_URL or http://localhost:8000)")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults TUNELAB_LOG_LEVEL or info)")
	pf.StringVar(&a.schemaFile, "schema-file", "", "Hyperparameter schema file; overrides the service schema")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup(cmd)
	}

	root.AddCommand(
		newServeCmd(a),
		newModelsCmd(a),
		newSchemaCmd(a),
		newTrainCmd(a),
		newInteractiveCmd(a),
	)
	return root
}

// setup resolves configuration: defaults < file < env < flags.
func (a *app) setup(cmd *cobra.Command) error {
	path, err := fsutil.ExpandHome(strings.TrimSpace(a.cfgPath))
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(path, a.getenv)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIBaseURL = a.apiURL
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("schema-file") {
		cfg.SchemaFile = a.schemaFile
	}
	a.cfg = cfg
	a.log = newLogger(a.errOut, cfg.LogLevel)
	return nil
}

// newLogger returns a console logger at level (info when unparsable).
func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	return zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
}
