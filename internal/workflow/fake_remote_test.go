package workflow

import (
	"context"
	"errors"
	"io"
	"sync"

	"tunelab/pkg/types"
)

// fakeRemote records calls and returns canned results.
type fakeRemote struct {
	mu sync.Mutex

	models    []string
	modelsErr error
	// listGate, when set, blocks ListModels until closed.
	listGate chan struct{}
	listSeen chan struct{}

	uploadPath string
	uploadErr  error
	// uploadGate, when set, blocks UploadDataset until closed.
	uploadGate chan struct{}
	uploadSeen chan struct{}

	startErr  error
	startResp types.StartTrainingResponse
	panicOn   string

	listCalls   int
	uploadCalls int
	startCalls  int
	uploaded    []string
	uploadData  []string
	started     []types.StartTrainingRequest
}

func (f *fakeRemote) ListModels(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	gate, seen := f.listGate, f.listSeen
	f.mu.Unlock()
	if seen != nil {
		seen <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.modelsErr != nil {
		return nil, f.modelsErr
	}
	return append([]string(nil), f.models...), nil
}

func (f *fakeRemote) UploadDataset(ctx context.Context, name string, content io.Reader) (string, error) {
	b, _ := io.ReadAll(content)
	f.mu.Lock()
	f.uploadCalls++
	f.uploaded = append(f.uploaded, name)
	f.uploadData = append(f.uploadData, string(b))
	gate, seen := f.uploadGate, f.uploadSeen
	path, err := f.uploadPath, f.uploadErr
	doPanic := f.panicOn == "upload"
	f.mu.Unlock()
	if seen != nil {
		seen <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if doPanic {
		panic("upload exploded")
	}
	if err != nil {
		return "", err
	}
	if path == "" {
		path = "uploads/" + name
	}
	return path, nil
}

func (f *fakeRemote) StartTraining(ctx context.Context, req types.StartTrainingRequest) (types.StartTrainingResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	f.started = append(f.started, req)
	if f.startErr != nil {
		return types.StartTrainingResponse{}, f.startErr
	}
	if f.startResp.Status == "" {
		return types.StartTrainingResponse{Status: "success", Message: "Training started", OutputDir: "out/" + req.ModelName}, nil
	}
	return f.startResp, nil
}

func (f *fakeRemote) counts() (list, upload, start int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.uploadCalls, f.startCalls
}

func (f *fakeRemote) setStartErr(err error) {
	f.mu.Lock()
	f.startErr = err
	f.mu.Unlock()
}

var errBoom = errors.New("boom")
