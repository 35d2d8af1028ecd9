package trainapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"tunelab/internal/hparams"
	"tunelab/pkg/types"
)

// Operation names used in errors, logs and metric labels.
const (
	OpListModels    = "list_models"
	OpUploadDataset = "upload_dataset"
	OpStartTraining = "start_training"
	OpConfigSchema  = "config_schema"
)

// ListModels returns the fine-tunable model identifiers in service order.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := c.withTimeout(ctx, c.requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+PathSupportedModels, nil)
	if err != nil {
		return nil, err
	}
	var body types.ModelsResponse
	if err := c.do(req, OpListModels, &body); err != nil {
		return nil, err
	}
	if body.Models == nil {
		body.Models = []string{}
	}
	return body.Models, nil
}

// UploadDataset streams content as multipart field "file" and returns the
// server-assigned reference path.
func (c *Client) UploadDataset(ctx context.Context, name string, content io.Reader) (string, error) {
	ctx, cancel := c.withTimeout(ctx, c.uploadTimeout)
	defer cancel()
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(name))
		if err == nil {
			_, err = io.Copy(part, content)
		}
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PathUploadDataset, pr)
	if err != nil {
		_ = pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var body types.UploadResponse
	if err := c.do(req, OpUploadDataset, &body); err != nil {
		_ = pr.Close()
		return "", err
	}
	if strings.EqualFold(body.Status, "error") {
		return "", &StatusError{Op: OpUploadDataset, StatusCode: http.StatusOK, Message: body.Message}
	}
	if strings.TrimSpace(body.FilePath) == "" {
		return "", fmt.Errorf("%s: response has no file_path", OpUploadDataset)
	}
	return body.FilePath, nil
}

// StartTraining asks the service to start a fine-tuning job. A success status
// whose body reports "status": "error" is treated as a failure.
func (c *Client) StartTraining(ctx context.Context, in types.StartTrainingRequest) (types.StartTrainingResponse, error) {
	ctx, cancel := c.withTimeout(ctx, c.requestTimeout)
	defer cancel()
	payload, err := json.Marshal(in)
	if err != nil {
		return types.StartTrainingResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PathStartTraining, bytes.NewReader(payload))
	if err != nil {
		return types.StartTrainingResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	var out types.StartTrainingResponse
	if err := c.do(req, OpStartTraining, &out); err != nil {
		return types.StartTrainingResponse{}, err
	}
	if strings.EqualFold(out.Status, "error") {
		return out, &StatusError{Op: OpStartTraining, StatusCode: http.StatusOK, Message: out.Message}
	}
	return out, nil
}

// TrainingConfigSchema fetches the service's hyperparameter schema.
func (c *Client) TrainingConfigSchema(ctx context.Context) (hparams.Schema, error) {
	ctx, cancel := c.withTimeout(ctx, c.requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+PathConfigSchema, nil)
	if err != nil {
		return hparams.Schema{}, err
	}
	var raw json.RawMessage
	if err := c.do(req, OpConfigSchema, &raw); err != nil {
		return hparams.Schema{}, err
	}
	s, err := hparams.Parse(raw, "json")
	if err != nil {
		return hparams.Schema{}, fmt.Errorf("%s: %w", OpConfigSchema, err)
	}
	return s, nil
}
