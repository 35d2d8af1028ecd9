package cli

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"tunelab/internal/common/fsutil"
	"tunelab/internal/config"
	"tunelab/internal/hparams"
	"tunelab/internal/progress"
	"tunelab/internal/trainapi"
	"tunelab/internal/workflow"
)

// app carries state shared by all commands.
type app struct {
	cfgPath    string
	apiURL     string
	logLevel   string
	schemaFile string

	cfg      config.Config
	log      zerolog.Logger
	out      io.Writer
	errOut   io.Writer
	getenv   func(string) string
	prompter Prompter
}

// Schema sources reported by resolveSchema.
const (
	schemaFromFile    = "file"
	schemaFromService = "service"
	schemaBuiltin     = "builtin"
)

func (a *app) client() *trainapi.Client {
	l := a.log.With().Str("component", "trainapi").Logger()
	return trainapi.New(trainapi.Options{
		BaseURL:        a.cfg.APIBaseURL,
		RequestTimeout: a.cfg.RequestTimeout(),
		UploadTimeout:  a.cfg.UploadTimeout(),
		ConnectTimeout: a.cfg.ConnectTimeout(),
		Logger:         &l,
	})
}

// resolveSchema picks the schema file, then the service schema, then the
// built-in one. A broken schema file is an error; an unavailable service
// schema is not.
func (a *app) resolveSchema(ctx context.Context, c *trainapi.Client) (hparams.Schema, string, error) {
	if a.cfg.SchemaFile != "" {
		p, err := fsutil.ExpandHome(a.cfg.SchemaFile)
		if err != nil {
			return hparams.Schema{}, "", err
		}
		s, err := hparams.LoadFile(p)
		if err != nil {
			return hparams.Schema{}, "", err
		}
		return s, schemaFromFile, nil
	}
	s, err := c.TrainingConfigSchema(ctx)
	if err == nil {
		return s, schemaFromService, nil
	}
	a.log.Debug().Err(err).Msg("service schema unavailable, using built-in")
	return hparams.Default(), schemaBuiltin, nil
}

// controller wires a Controller to the training service. Notifications are
// logged and also published to extra.
func (a *app) controller(ctx context.Context, extra workflow.Notifier) (*workflow.Controller, *trainapi.Client, error) {
	c := a.client()
	schema, src, err := a.resolveSchema(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	a.log.Debug().Str("source", src).Int("params", schema.Len()).Msg("hyperparameter schema")
	l := a.log.With().Str("component", "workflow").Logger()
	ctrl, err := workflow.New(workflow.Config{
		Remote:   c,
		Schema:   schema,
		Notifier: workflow.Multi(logNotifier{log: a.log}, extra),
		Logger:   &l,
		Progress: progress.New(),
	})
	if err != nil {
		return nil, nil, err
	}
	return ctrl, c, nil
}

// logNotifier writes notifications to the log.
type logNotifier struct {
	log zerolog.Logger
}

func (n logNotifier) Publish(x workflow.Notification) {
	ev := n.log.Info()
	if x.Level == workflow.LevelError {
		ev = n.log.Warn()
	}
	ev.Str("title", x.Title).Msg(x.Message)
}
