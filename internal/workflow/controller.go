package workflow

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"tunelab/internal/hparams"
	"tunelab/internal/progress"
	"tunelab/pkg/types"
)

// Remote is the training service as seen by the Controller.
type Remote interface {
	ListModels(ctx context.Context) ([]string, error)
	UploadDataset(ctx context.Context, name string, content io.Reader) (string, error)
	StartTraining(ctx context.Context, req types.StartTrainingRequest) (types.StartTrainingResponse, error)
}

// Config encapsulates Controller dependencies.
type Config struct {
	Remote Remote
	// Schema defaults to hparams.Default() when it has no groups.
	Schema   hparams.Schema
	Notifier Notifier
	Logger   *zerolog.Logger
	Progress progress.Reporter
}

// Controller orchestrates model discovery and the upload-then-start
// submission. All methods are safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	st       SelectionState
	schema   hparams.Schema
	fileGen  uint64
	uploaded uploadRef
	loads    int

	remote   Remote
	notifier Notifier
	reporter progress.Reporter
	log      zerolog.Logger

	// background submissions started with Start
	wg sync.WaitGroup
}

// New constructs a Controller. The schema is validated and values start at
// its defaults.
func New(cfg Config) (*Controller, error) {
	if cfg.Remote == nil {
		return nil, fmt.Errorf("workflow: remote is required")
	}
	schema := cfg.Schema
	if len(schema.Groups) == 0 {
		schema = hparams.Default()
	}
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("workflow: %w", err)
	}
	c := &Controller{
		schema:   schema,
		remote:   cfg.Remote,
		notifier: cfg.Notifier,
		reporter: cfg.Progress,
		log:      zerolog.Nop(),
	}
	if c.notifier == nil {
		c.notifier = noopNotifier{}
	}
	if cfg.Logger != nil {
		c.log = *cfg.Logger
	}
	c.st.Hyperparameters = schema.Defaults()
	return c, nil
}

func (c *Controller) publish(n Notification) { c.notifier.Publish(n) }

// LoadAvailableModels fetches the model list and replaces the current one.
// On failure the previous list is kept and a NetworkError is returned.
func (c *Controller) LoadAvailableModels(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	c.loads++
	c.st.LoadingModels = true
	c.mu.Unlock()

	models, err := c.remote.ListModels(ctx)

	c.mu.Lock()
	c.loads--
	c.st.LoadingModels = c.loads > 0
	if err != nil {
		we := newError(KindNetwork, msgNetwork, err)
		c.st.LastError = we.Error()
		c.mu.Unlock()
		c.log.Error().Err(err).Msg("load models failed")
		c.publish(NewNotification(LevelError, "Error", we.Message))
		return nil, we
	}
	c.st.Models = append([]string(nil), models...)
	c.st.ModelsLoaded = true
	c.st.LastError = ""
	if c.st.Model != "" && !contains(c.st.Models, c.st.Model) {
		c.log.Info().Str("model", c.st.Model).Msg("selected model no longer offered, clearing selection")
		c.st.Model = ""
	}
	out := append([]string(nil), c.st.Models...)
	c.mu.Unlock()
	c.log.Info().Int("count", len(out)).Msg("models loaded")
	return out, nil
}

// SelectModel chooses one of the last loaded models.
func (c *Controller) SelectModel(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !contains(c.st.Models, id) {
		return newError(KindValidation, "Unknown model: "+id, nil)
	}
	c.st.Model = id
	return nil
}

// SelectDatasetFile replaces the selected dataset. Any reference path from a
// previous upload is forgotten. Content is not inspected.
func (c *Controller) SelectDatasetFile(f DatasetFile) {
	if strings.TrimSpace(f.Name) == "" {
		f.Name = "dataset"
	}
	c.mu.Lock()
	c.fileGen++
	c.st.Dataset = &f
	c.uploaded = uploadRef{}
	c.mu.Unlock()
	if !IsAcceptedExtension(f.Name) {
		c.log.Warn().Str("file", f.Name).Strs("accepted", AcceptedExtensions).Msg("dataset extension not in accepted list")
	}
	c.publish(NewNotification(LevelInfo, "File selected", "Selected file: "+f.Name))
}

// SetHyperparameter stores a value, clamped into the spec bounds. Unknown
// keys and non-finite values are ValidationErrors.
func (c *Controller) SetHyperparameter(group, key string, v float64) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	x, err := c.st.Hyperparameters.Set(c.schema, group, key, v)
	if err != nil {
		return 0, newError(KindValidation, "Invalid hyperparameter "+group+"."+key, err)
	}
	return x, nil
}

// Schema returns the hyperparameter schema in use.
func (c *Controller) Schema() hparams.Schema {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.schema
}

// ReplaceSchema swaps the schema and resets values to its defaults.
func (c *Controller) ReplaceSchema(s hparams.Schema) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	c.mu.Lock()
	c.schema = s
	c.st.Hyperparameters = s.Defaults()
	c.mu.Unlock()
	return nil
}

// Form renders the schema with current values. Committing a field edit
// stores the value in this Controller.
func (c *Controller) Form() hparams.Form {
	c.mu.Lock()
	schema := c.schema
	values := c.st.Hyperparameters.Clone()
	c.mu.Unlock()
	r := hparams.NewRenderer(func(group, key string, v float64) {
		if _, err := c.SetHyperparameter(group, key, v); err != nil {
			c.log.Warn().Err(err).Str("group", group).Str("key", key).Msg("hyperparameter edit dropped")
		}
	})
	return r.Render(schema).WithValues(values)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{SelectionState: c.st.clone()}
	if c.st.Dataset != nil && c.uploaded.gen == c.fileGen {
		s.UploadedPath = c.uploaded.path
	}
	return s
}

// State projects the current state for the JSON API, including the progress
// indicator.
func (c *Controller) State() types.PanelState {
	s := c.Snapshot()
	ps := s.toPanelState()
	ind := c.reporter.Report(s.InFlight)
	ps.Progress = types.ProgressView{Visible: ind.Visible, Title: ind.Title, Caption: ind.Caption}
	return ps
}

// Progress returns the indicator for the current in-flight flag.
func (c *Controller) Progress() progress.Indicator {
	c.mu.Lock()
	inFlight := c.st.InFlight
	c.mu.Unlock()
	return c.reporter.Report(inFlight)
}

// Ready reports whether the model list was loaded at least once.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.ModelsLoaded
}

// IsAcceptedExtension reports whether name ends in one of AcceptedExtensions.
func IsAcceptedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return contains(AcceptedExtensions, ext)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
