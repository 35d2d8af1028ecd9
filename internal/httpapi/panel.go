package httpapi

import (
	"bytes"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"

	"tunelab/internal/workflow"
)

//go:embed templates/*.html
var templateFS embed.FS

// PanelTitle is the page heading.
const PanelTitle = "Model Fine-tuning"

var (
	panelOnce sync.Once
	panelTpl  *pongo2.Template
	panelErr  error

	descPolicyOnce sync.Once
	descPolicy     *bluemonday.Policy
)

func panelTemplate() (*pongo2.Template, error) {
	panelOnce.Do(func() {
		sub, err := fs.Sub(templateFS, "templates")
		if err != nil {
			panelErr = err
			return
		}
		set := pongo2.NewSet("tunelab", pongo2.NewFSLoader(sub))
		panelTpl, panelErr = set.FromFile("panel.html")
	})
	return panelTpl, panelErr
}

// sanitizeDescription keeps inline formatting from schema descriptions and
// strips everything else.
func sanitizeDescription(s string) string {
	descPolicyOnce.Do(func() {
		p := bluemonday.StrictPolicy()
		p.AllowElements("b", "i", "em", "strong", "code", "br")
		descPolicy = p
	})
	return strings.TrimSpace(descPolicy.Sanitize(s))
}

type fieldView struct {
	Name        string
	Label       string
	Description string
	Min         string
	Max         string
	Step        string
	Value       string
}

type groupView struct {
	Title  string
	Fields []fieldView
}

func formatFloat(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }

func mountPanel(r chi.Router, h *handlers) {
	r.Get("/", h.getPanel)
	r.Route("/panel", func(p chi.Router) {
		p.Post("/models/refresh", h.panelRefresh)
		p.Post("/model", h.panelModel)
		p.Post("/dataset", h.panelDataset)
		p.Post("/hyperparameters", h.panelHyperparameters)
		p.Post("/submit", h.panelSubmit)
		p.Post("/notifications/{id}/dismiss", h.panelDismiss)
	})
}

func (h *handlers) getPanel(w http.ResponseWriter, r *http.Request) {
	tpl, err := panelTemplate()
	if err != nil {
		logger().Error().Err(err).Msg("panel template")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	ps := h.panelState()
	form := h.svc.Form()
	groups := make([]groupView, 0, len(form.Groups))
	for _, g := range form.Groups {
		gv := groupView{Title: g.Title}
		for _, f := range g.Fields {
			gv.Fields = append(gv.Fields, fieldView{
				Name:        f.Group + "." + f.Key,
				Label:       f.Label,
				Description: sanitizeDescription(f.Description),
				Min:         formatFloat(f.Min),
				Max:         formatFloat(f.Max),
				Step:        formatFloat(f.Step),
				Value:       formatFloat(f.Value),
			})
		}
		groups = append(groups, gv)
	}
	ctx := pongo2.Context{
		"title":         PanelTitle,
		"state":         ps,
		"models":        ps.Models,
		"selected":      ps.SelectedModel,
		"groups":        groups,
		"accept":        strings.Join(workflow.AcceptedExtensions, ","),
		"can_submit":    ps.SelectedModel != "" && ps.Dataset != nil && !ps.InFlight,
		"progress":      ps.Progress,
		"notifications": ps.Notifications,
	}
	if ps.Dataset != nil {
		ctx["dataset_name"] = ps.Dataset.Name
		ctx["dataset_size"] = ps.Dataset.Size
		ctx["uploaded_path"] = ps.Dataset.UploadedPath
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteWriter(ctx, &buf); err != nil {
		logger().Error().Err(err).Msg("panel render")
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// backToPanel ends a panel form command.
func backToPanel(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// panelCommand runs fn, records it and redirects. Failures are already
// surfaced as notifications by the workflow, so they only get logged here.
func panelCommand(w http.ResponseWriter, r *http.Request, name string, fn func() error) {
	start := time.Now()
	err := fn()
	recordCommand(name, err)
	status := http.StatusSeeOther
	var he HTTPError
	if errors.As(err, &he) {
		status = he.StatusCode()
		if status == http.StatusTooManyRequests {
			IncrementBackpressure("submission_in_flight")
		}
	}
	logCommand(r, name, status, start, err)
	backToPanel(w, r)
}

func (h *handlers) panelRefresh(w http.ResponseWriter, r *http.Request) {
	panelCommand(w, r, "refresh_models", func() error {
		ctx, cancel := requestContext(r)
		defer cancel()
		_, err := h.svc.LoadAvailableModels(ctx)
		return err
	})
}

func (h *handlers) panelModel(w http.ResponseWriter, r *http.Request) {
	panelCommand(w, r, "select_model", func() error {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		name := strings.TrimSpace(r.PostFormValue("model_name"))
		if name == "" {
			return nil
		}
		return h.svc.SelectModel(name)
	})
}

func (h *handlers) panelDataset(w http.ResponseWriter, r *http.Request) {
	panelCommand(w, r, "select_dataset", func() error {
		f, _, err := readDataset(w, r)
		if err != nil {
			if notes != nil {
				notes.Publish(workflow.NewNotification(workflow.LevelError, "Error", err.Error()))
			}
			return err
		}
		h.svc.SelectDatasetFile(f)
		return nil
	})
}

// panelHyperparameters commits each changed "group.key" form value.
// Invalid values are skipped without touching the stored value.
func (h *handlers) panelHyperparameters(w http.ResponseWriter, r *http.Request) {
	panelCommand(w, r, "set_hyperparameters", func() error {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return err
		}
		for _, g := range h.svc.Form().Groups {
			for _, f := range g.Fields {
				raw, ok := r.PostForm[f.Group+"."+f.Key]
				if !ok || len(raw) == 0 {
					continue
				}
				if strings.TrimSpace(raw[0]) == formatFloat(f.Value) {
					continue
				}
				if _, err := f.Commit(raw[0]); err != nil {
					logger().Debug().Err(err).Str("group", f.Group).Str("key", f.Key).Msg("hyperparameter edit rejected")
				}
			}
		}
		return nil
	})
}

func (h *handlers) panelSubmit(w http.ResponseWriter, r *http.Request) {
	panelCommand(w, r, "submit", func() error {
		return h.svc.Start(serverBaseCtx)
	})
}

func (h *handlers) panelDismiss(w http.ResponseWriter, r *http.Request) {
	if notes != nil {
		notes.Dismiss(chi.URLParam(r, "id"))
	}
	backToPanel(w, r)
}
