package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"tunelab/internal/progress"
	"tunelab/internal/workflow"
	"tunelab/pkg/types"
)

type fakeRemote struct {
	mu         sync.Mutex
	models     []string
	modelsErr  error
	uploadErr  error
	startErr   error
	uploadGate chan struct{}
	uploadSeen chan struct{}
	uploads    int
	starts     []types.StartTrainingRequest
}

func (f *fakeRemote) ListModels(ctx context.Context) ([]string, error) {
	if f.modelsErr != nil {
		return nil, f.modelsErr
	}
	return append([]string(nil), f.models...), nil
}

func (f *fakeRemote) UploadDataset(ctx context.Context, name string, content io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, content)
	f.mu.Lock()
	f.uploads++
	f.mu.Unlock()
	if f.uploadSeen != nil {
		f.uploadSeen <- struct{}{}
	}
	if f.uploadGate != nil {
		<-f.uploadGate
	}
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "uploads/" + name, nil
}

func (f *fakeRemote) StartTraining(ctx context.Context, req types.StartTrainingRequest) (types.StartTrainingResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, req)
	if f.startErr != nil {
		return types.StartTrainingResponse{}, f.startErr
	}
	return types.StartTrainingResponse{Status: "success", Message: "Training started", OutputDir: "out"}, nil
}

func newTestServer(t *testing.T, remote *fakeRemote) (http.Handler, *workflow.Controller) {
	t.Helper()
	if remote.models == nil {
		remote.models = []string{"llama-3-8b", "mistral-7b"}
	}
	n := workflow.NewMemoryNotifier(0)
	SetNotifications(n)
	t.Cleanup(func() { SetNotifications(nil) })
	c, err := workflow.New(workflow.Config{Remote: remote, Notifier: n, Progress: progress.New()})
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	return NewMux(c), c
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, path, name, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write([]byte(content))
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// prepare loads models, selects one and a dataset through the API.
func prepare(t *testing.T, h http.Handler) {
	t.Helper()
	if w := do(t, h, http.MethodPost, "/api/models/refresh", ""); w.Code != http.StatusOK {
		t.Fatalf("refresh status=%d body=%s", w.Code, w.Body.String())
	}
	if w := do(t, h, http.MethodPut, "/api/model", `{"model_name":"mistral-7b"}`); w.Code != http.StatusOK {
		t.Fatalf("select status=%d body=%s", w.Code, w.Body.String())
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, uploadRequest(t, "/api/dataset", "data.jsonl", `{"text":"hi"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("dataset status=%d body=%s", w.Code, w.Body.String())
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("json: %v body=%s", err, w.Body.String())
	}
	return e
}

func TestRefreshModels(t *testing.T) {
	h, _ := newTestServer(t, &fakeRemote{})
	w := do(t, h, http.MethodPost, "/api/models/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Models) != 2 {
		t.Fatalf("models=%v", body.Models)
	}
	w = do(t, h, http.MethodGet, "/api/models", "")
	if !strings.Contains(w.Body.String(), "mistral-7b") {
		t.Fatalf("models not listed: %s", w.Body.String())
	}
}

func TestRefreshModels_FailureMaps502(t *testing.T) {
	h, _ := newTestServer(t, &fakeRemote{modelsErr: errors.New("connection refused")})
	w := do(t, h, http.MethodPost, "/api/models/refresh", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if e := decodeError(t, w); e.Kind != string(workflow.KindNetwork) || e.Code != 502 {
		t.Fatalf("unexpected error body %+v", e)
	}
}

func TestReadyz_AfterFirstLoad(t *testing.T) {
	h, _ := newTestServer(t, &fakeRemote{})
	if w := do(t, h, http.MethodGet, "/readyz", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before load, got %d", w.Code)
	}
	do(t, h, http.MethodPost, "/api/models/refresh", "")
	if w := do(t, h, http.MethodGet, "/readyz", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200 after load, got %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", w.Code, w.Body.String())
	}
}

func TestPutModel_UnknownIs400(t *testing.T) {
	h, _ := newTestServer(t, &fakeRemote{})
	do(t, h, http.MethodPost, "/api/models/refresh", "")
	w := do(t, h, http.MethodPut, "/api/model", `{"model_name":"gpt-9"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if e := decodeError(t, w); e.Kind != string(workflow.KindValidation) {
		t.Fatalf("unexpected kind %q", e.Kind)
	}
}

func TestPutModel_RequiresJSON(t *testing.T) {
	h, _ := newTestServer(t, &fakeRemote{})
	req := httptest.NewRequest(http.MethodPut, "/api/model", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", w.Code)
	}
	if w := do(t, h, http.MethodPut, "/api/model", `{bad`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid json, got %d", w.Code)
	}
}

func TestPostDataset_RequiresFile(t *testing.T) {
	h, _ := newTestServer(t, &fakeRemote{})
	req := httptest.NewRequest(http.MethodPost, "/api/dataset", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestPostDataset_TooLarge(t *testing.T) {
	SetMaxUploadBytes(4)
	defer SetMaxUploadBytes(0)
	h, _ := newTestServer(t, &fakeRemote{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, uploadRequest(t, "/api/dataset", "d.csv", "0123456789"))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}

func TestHyperparameters_CommitClampAndReject(t *testing.T) {
	h, c := newTestServer(t, &fakeRemote{})
	w := do(t, h, http.MethodPut, "/api/hyperparameters/lora_config/lora_dropout", `{"value":"0.75"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var v types.HyperparameterValue
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v", err)
	}
	if v.Value != 0.5 {
		t.Fatalf("expected clamp to 0.5, got %v", v.Value)
	}
	if w := do(t, h, http.MethodPut, "/api/hyperparameters/lora_config/lora_dropout", `{"value":0.2}`); w.Code != http.StatusOK {
		t.Fatalf("numeric value status=%d", w.Code)
	}
	if w := do(t, h, http.MethodPut, "/api/hyperparameters/lora_config/lora_dropout", `{"value":"abc"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if got, _ := c.Snapshot().Hyperparameters.Get("lora_config", "lora_dropout"); got != 0.2 {
		t.Fatalf("rejected edit changed value: %v", got)
	}
	if w := do(t, h, http.MethodPut, "/api/hyperparameters/lora_config/nope", `{"value":"1"}`); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetHyperparametersAndSchema(t *testing.T) {
	h, _ := newTestServer(t, &fakeRemote{})
	w := do(t, h, http.MethodGet, "/api/hyperparameters", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"key":"learning_rate"`) {
		t.Fatalf("form: %d %s", w.Code, w.Body.String())
	}
	w = do(t, h, http.MethodGet, "/api/config-schema", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "lora_config") {
		t.Fatalf("schema: %d %s", w.Code, w.Body.String())
	}
}

func TestSubmit_MissingSelectionIs400(t *testing.T) {
	remote := &fakeRemote{}
	h, _ := newTestServer(t, remote)
	w := do(t, h, http.MethodPost, "/api/submit", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if remote.uploads != 0 || len(remote.starts) != 0 {
		t.Fatalf("no request expected")
	}
}

func TestSubmit_Success(t *testing.T) {
	remote := &fakeRemote{}
	h, _ := newTestServer(t, remote)
	prepare(t, h)
	w := do(t, h, http.MethodPost, "/api/submit", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var res types.SubmissionResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("json: %v", err)
	}
	if res.DatasetPath != "uploads/data.jsonl" || res.ModelName != "mistral-7b" {
		t.Fatalf("unexpected result %+v", res)
	}
	var ps types.PanelState
	_ = json.Unmarshal(do(t, h, http.MethodGet, "/api/state", "").Body.Bytes(), &ps)
	if len(ps.Notifications) == 0 || ps.Notifications[len(ps.Notifications)-1].Level != "success" {
		t.Fatalf("expected success notification, got %+v", ps.Notifications)
	}
}

func TestSubmit_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		remote *fakeRemote
		kind   workflow.Kind
	}{
		{"upload", &fakeRemote{uploadErr: errors.New("disk full")}, workflow.KindUpload},
		{"start", &fakeRemote{startErr: errors.New("gpu busy")}, workflow.KindTrainingStart},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newTestServer(t, tc.remote)
			prepare(t, h)
			w := do(t, h, http.MethodPost, "/api/submit", "")
			if w.Code != http.StatusBadGateway {
				t.Fatalf("expected 502, got %d", w.Code)
			}
			if e := decodeError(t, w); e.Kind != string(tc.kind) {
				t.Fatalf("expected kind %s, got %+v", tc.kind, e)
			}
		})
	}
}

func TestSubmit_BusyIs429(t *testing.T) {
	remote := &fakeRemote{uploadGate: make(chan struct{}), uploadSeen: make(chan struct{}, 1)}
	h, c := newTestServer(t, remote)
	prepare(t, h)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-remote.uploadSeen
	w := do(t, h, http.MethodPost, "/api/submit", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	var ps types.PanelState
	_ = json.Unmarshal(do(t, h, http.MethodGet, "/api/state", "").Body.Bytes(), &ps)
	if !ps.InFlight || !ps.Progress.Visible {
		t.Fatalf("expected in-flight state with progress, got %+v", ps)
	}
	close(remote.uploadGate)
	c.Wait()
	if remote.uploads != 1 {
		t.Fatalf("expected a single upload, got %d", remote.uploads)
	}
}

func TestDeleteNotification(t *testing.T) {
	h, c := newTestServer(t, &fakeRemote{})
	c.SelectDatasetFile(workflow.DatasetFile{Name: "a.csv"})
	var ps types.PanelState
	_ = json.Unmarshal(do(t, h, http.MethodGet, "/api/state", "").Body.Bytes(), &ps)
	if len(ps.Notifications) != 1 {
		t.Fatalf("expected one notification, got %d", len(ps.Notifications))
	}
	if w := do(t, h, http.MethodDelete, "/api/notifications/"+ps.Notifications[0].ID, ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := do(t, h, http.MethodDelete, "/api/notifications/missing", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	h, _ := newTestServer(t, &fakeRemote{})
	w := do(t, h, http.MethodGet, "/healthz", "")
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
}

func TestCORS_OptIn(t *testing.T) {
	SetCORSOptions(true, []string{"http://ui.local"}, []string{"GET", "PUT"}, []string{"Content-Type"})
	defer SetCORSOptions(false, nil, nil, nil)
	h, _ := newTestServer(t, &fakeRemote{})
	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("Origin", "http://ui.local")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://ui.local" {
		t.Fatalf("expected CORS header, got %q", got)
	}
}
