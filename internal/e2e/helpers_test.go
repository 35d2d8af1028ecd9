package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"tunelab/internal/httpapi"
	"tunelab/internal/progress"
	"tunelab/internal/trainapi"
	"tunelab/internal/workflow"
)

// trainingService is an in-process stand-in for the remote service.
type trainingService struct {
	mu          sync.Mutex
	models      []string
	uploads     []string
	starts      []map[string]any
	failStarts  int
	uploadCodes []int
}

func (s *trainingService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/supported-models", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"models": s.models})
	})
	mux.HandleFunc("POST /api/upload-dataset", func(w http.ResponseWriter, r *http.Request) {
		_, hdr, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"detail":"file is required"}`)
			return
		}
		s.mu.Lock()
		s.uploads = append(s.uploads, hdr.Filename)
		var code int
		if len(s.uploadCodes) > 0 {
			code, s.uploadCodes = s.uploadCodes[0], s.uploadCodes[1:]
		}
		s.mu.Unlock()
		if code != 0 {
			w.WriteHeader(code)
			_, _ = io.WriteString(w, `{"detail":"storage unavailable"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "file_path": "datasets/" + hdr.Filename})
	})
	mux.HandleFunc("POST /api/start-training", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		s.starts = append(s.starts, body)
		fail := s.failStarts > 0
		if fail {
			s.failStarts--
		}
		s.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"detail":"no GPU available"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "message": "Training started", "output_dir": "models/run-1"})
	})
	return mux
}

// newPanel starts the training service and a panel wired to it.
func newPanel(t *testing.T, svc *trainingService) (*httptest.Server, *workflow.Controller) {
	t.Helper()
	if svc.models == nil {
		svc.models = []string{"llama2-7b", "llama2-13b"}
	}
	remote := httptest.NewServer(svc.handler())
	t.Cleanup(remote.Close)

	notes := workflow.NewMemoryNotifier(0)
	httpapi.SetNotifications(notes)
	t.Cleanup(func() { httpapi.SetNotifications(nil) })
	ctrl, err := workflow.New(workflow.Config{
		Remote:   trainapi.New(trainapi.Options{BaseURL: remote.URL}),
		Notifier: notes,
		Progress: progress.New(),
	})
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	panel := httptest.NewServer(httpapi.NewMux(ctrl))
	t.Cleanup(panel.Close)
	return panel, ctrl
}

func httpDo(t *testing.T, method, url, contentType string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func httpJSON(t *testing.T, method, url, payload string) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	ct := ""
	if payload != "" {
		body = bytes.NewBufferString(payload)
		ct = "application/json"
	}
	return httpDo(t, method, url, ct, body)
}

func httpUpload(t *testing.T, url, name, content string) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = io.WriteString(fw, content)
	_ = mw.Close()
	return httpDo(t, http.MethodPost, url, mw.FormDataContentType(), &buf)
}
