package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tunelab/internal/hparams"
	"tunelab/internal/workflow"
	"tunelab/pkg/types"
)

// Service is the workflow surface the HTTP layer drives.
// *workflow.Controller implements it.
type Service interface {
	LoadAvailableModels(ctx context.Context) ([]string, error)
	SelectModel(id string) error
	SelectDatasetFile(f workflow.DatasetFile)
	SetHyperparameter(group, key string, v float64) (float64, error)
	Form() hparams.Form
	Schema() hparams.Schema
	State() types.PanelState
	Submit(ctx context.Context) (types.SubmissionResult, error)
	Start(ctx context.Context) error
	Ready() bool
}

// NewMux builds the panel and JSON API router.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			next.ServeHTTP(w, r)
		})
	})
	r.Use(MetricsMiddleware)

	h := &handlers{svc: svc}

	mountPanel(r, h)

	r.Route("/api", func(api chi.Router) {
		if corsEnabled {
			api.Use(cors.Handler(cors.Options{
				AllowedOrigins: corsAllowedOrigins,
				AllowedMethods: corsAllowedMethods,
				AllowedHeaders: corsAllowedHeaders,
				MaxAge:         300,
			}))
		}
		api.Get("/state", h.getState)
		api.Get("/models", h.getModels)
		api.Post("/models/refresh", h.refreshModels)
		api.Put("/model", h.putModel)
		api.Post("/dataset", h.postDataset)
		api.Get("/hyperparameters", h.getHyperparameters)
		api.Put("/hyperparameters/{group}/{key}", h.putHyperparameter)
		api.Get("/config-schema", h.getConfigSchema)
		api.Post("/submit", h.postSubmit)
		api.Delete("/notifications/{id}", h.deleteNotification)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

type handlers struct {
	svc Service
}

// panelState is the service state plus retained notifications.
func (h *handlers) panelState() types.PanelState {
	ps := h.svc.State()
	ps.Notifications = []types.NotificationView{}
	if notes != nil {
		for _, n := range notes.Recent() {
			ps.Notifications = append(ps.Notifications, types.NotificationView{
				ID:      n.ID,
				Level:   string(n.Level),
				Title:   n.Title,
				Message: n.Message,
				Time:    n.Time.Unix(),
			})
		}
	}
	return ps
}

// getState godoc
// @Summary      Panel state
// @Description  Current selection, hyperparameters, progress and notifications.
// @Tags         panel
// @Produce      json
// @Success      200  {object}  types.PanelState
// @Router       /api/state [get]
func (h *handlers) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.panelState())
}

// getModels godoc
// @Summary      Loaded models
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Router       /api/models [get]
func (h *handlers) getModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.ModelsResponse{Models: h.svc.State().Models})
}

// refreshModels godoc
// @Summary      Reload models from the training service
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Failure      502  {object}  types.ErrorResponse
// @Router       /api/models/refresh [post]
func (h *handlers) refreshModels(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := requestContext(r)
	defer cancel()
	models, err := h.svc.LoadAvailableModels(ctx)
	recordCommand("refresh_models", err)
	if err != nil {
		logCommand(r, "refresh_models", writeError(w, err), start, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ModelsResponse{Models: models})
	logCommand(r, "refresh_models", http.StatusOK, start, nil)
}

// putModel godoc
// @Summary      Select a model
// @Tags         models
// @Accept       json
// @Produce      json
// @Param        body  body      types.SelectModelRequest  true  "Model"
// @Success      200   {object}  types.PanelState
// @Failure      400   {object}  types.ErrorResponse
// @Router       /api/model [put]
func (h *handlers) putModel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req types.SelectModelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := h.svc.SelectModel(strings.TrimSpace(req.ModelName))
	recordCommand("select_model", err)
	if err != nil {
		logCommand(r, "select_model", writeError(w, err), start, err)
		return
	}
	writeJSON(w, http.StatusOK, h.panelState())
	logCommand(r, "select_model", http.StatusOK, start, nil)
}

// postDataset godoc
// @Summary      Select a dataset file
// @Description  Stores the file for the next submission. Content is not inspected.
// @Tags         dataset
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Dataset"
// @Success      200   {object}  types.DatasetInfo
// @Failure      400   {object}  types.ErrorResponse
// @Failure      413   {object}  types.ErrorResponse
// @Router       /api/dataset [post]
func (h *handlers) postDataset(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	f, status, err := readDataset(w, r)
	if err != nil {
		writeJSONError(w, status, err.Error(), string(workflow.KindValidation))
		recordCommand("select_dataset", err)
		logCommand(r, "select_dataset", status, start, err)
		return
	}
	h.svc.SelectDatasetFile(f)
	recordCommand("select_dataset", nil)
	writeJSON(w, http.StatusOK, types.DatasetInfo{Name: f.Name, Size: len(f.Data)})
	logCommand(r, "select_dataset", http.StatusOK, start, nil)
}

// getHyperparameters godoc
// @Summary      Rendered hyperparameter form
// @Tags         hyperparameters
// @Produce      json
// @Success      200  {object}  hparams.Form
// @Router       /api/hyperparameters [get]
func (h *handlers) getHyperparameters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Form())
}

// putHyperparameter godoc
// @Summary      Commit a hyperparameter edit
// @Description  Non-numeric values are rejected; out-of-range values are clamped.
// @Tags         hyperparameters
// @Accept       json
// @Produce      json
// @Param        group  path      string                    true  "Group"
// @Param        key    path      string                    true  "Key"
// @Param        body   body      types.HyperparameterEdit  true  "Value"
// @Success      200    {object}  types.HyperparameterValue
// @Failure      400    {object}  types.ErrorResponse
// @Failure      404    {object}  types.ErrorResponse
// @Router       /api/hyperparameters/{group}/{key} [put]
func (h *handlers) putHyperparameter(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	group, key := chi.URLParam(r, "group"), chi.URLParam(r, "key")
	var req types.HyperparameterEdit
	if !decodeJSON(w, r, &req) {
		return
	}
	field, ok := h.svc.Form().Field(group, key)
	if !ok {
		err := fmt.Errorf("unknown hyperparameter %s.%s", group, key)
		writeJSONError(w, http.StatusNotFound, err.Error(), string(workflow.KindValidation))
		logCommand(r, "set_hyperparameter", http.StatusNotFound, start, err)
		return
	}
	v, err := field.Commit(string(req.Value))
	recordCommand("set_hyperparameter", err)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error(), string(workflow.KindValidation))
		logCommand(r, "set_hyperparameter", http.StatusBadRequest, start, err)
		return
	}
	writeJSON(w, http.StatusOK, types.HyperparameterValue{Group: group, Key: key, Value: v})
	logCommand(r, "set_hyperparameter", http.StatusOK, start, nil)
}

// getConfigSchema godoc
// @Summary      OpenAPI schema of the hyperparameters
// @Tags         hyperparameters
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/config-schema [get]
func (h *handlers) getConfigSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, hparams.OpenAPISchema(h.svc.Schema()))
}

// postSubmit godoc
// @Summary      Upload the dataset and start training
// @Description  Runs the upload-then-start sequence and waits for it.
// @Tags         training
// @Produce      json
// @Success      200  {object}  types.SubmissionResult
// @Failure      400  {object}  types.ErrorResponse
// @Failure      429  {object}  types.ErrorResponse
// @Failure      502  {object}  types.ErrorResponse
// @Router       /api/submit [post]
func (h *handlers) postSubmit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := requestContext(r)
	defer cancel()
	res, err := h.svc.Submit(ctx)
	recordCommand("submit", err)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		logCommand(r, "submit", writeError(w, err), start, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
	logCommand(r, "submit", http.StatusOK, start, nil)
}

// deleteNotification godoc
// @Summary      Dismiss a notification
// @Tags         panel
// @Param        id  path  string  true  "Notification id"
// @Success      204
// @Failure      404  {object}  types.ErrorResponse
// @Router       /api/notifications/{id} [delete]
func (h *handlers) deleteNotification(w http.ResponseWriter, r *http.Request) {
	if notes == nil || !notes.Dismiss(chi.URLParam(r, "id")) {
		writeJSONError(w, http.StatusNotFound, "notification not found", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeJSON reads a bounded JSON body into v, writing a 4xx on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", "")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body", string(workflow.KindValidation))
		return false
	}
	return true
}

// readDataset reads the multipart "file" field, bounded by maxUploadBytes.
func readDataset(w http.ResponseWriter, r *http.Request) (workflow.DatasetFile, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+(1<<20))
	file, hdr, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return workflow.DatasetFile{}, http.StatusRequestEntityTooLarge, fmt.Errorf("dataset exceeds %d bytes", maxUploadBytes)
		}
		return workflow.DatasetFile{}, http.StatusBadRequest, fmt.Errorf("multipart field \"file\" is required")
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return workflow.DatasetFile{}, http.StatusBadRequest, fmt.Errorf("read dataset: %w", err)
	}
	if int64(len(data)) > maxUploadBytes {
		return workflow.DatasetFile{}, http.StatusRequestEntityTooLarge, fmt.Errorf("dataset exceeds %d bytes", maxUploadBytes)
	}
	return workflow.DatasetFile{Name: hdr.Filename, Data: data}, http.StatusOK, nil
}
