package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ModelsResponse wraps the model list returned by GET /api/supported-models.
type ModelsResponse struct {
	// Fine-tunable model identifiers.
	// example: ["llama2-7b","llama2-13b"]
	Models []string `json:"models" example:"llama2-7b,llama2-13b"`
}

// UploadResponse is returned by the remote dataset upload endpoint.
type UploadResponse struct {
	// example: success
	Status string `json:"status,omitempty" example:"success"`
	// Server-assigned reference path of the stored dataset.
	// example: uploads/train.jsonl
	FilePath string `json:"file_path" example:"uploads/train.jsonl"`
	// Optional error message when status is "error".
	Message string `json:"message,omitempty"`
}

// StartTrainingRequest is the payload posted to the remote start-training endpoint.
// Hyperparameter groups are emitted as top-level objects keyed by group name
// (e.g. "training_params", "lora_config").
type StartTrainingRequest struct {
	ModelName       string                        `json:"model_name"`
	DatasetPath     string                        `json:"dataset_path"`
	Hyperparameters map[string]map[string]float64 `json:"-"`
}

// MarshalJSON flattens hyperparameter groups next to the fixed fields.
func (r StartTrainingRequest) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Hyperparameters)+2)
	for group, params := range r.Hyperparameters {
		if len(params) == 0 {
			continue
		}
		out[group] = params
	}
	out["model_name"] = r.ModelName
	out["dataset_path"] = r.DatasetPath
	return json.Marshal(out)
}

// StartTrainingResponse is the (mostly informational) body returned by the
// remote start-training endpoint.
type StartTrainingResponse struct {
	// example: success
	Status string `json:"status,omitempty" example:"success"`
	// example: Training completed successfully
	Message string `json:"message,omitempty" example:"Training completed successfully"`
	// example: models/llama2-7b-finetuned
	OutputDir string `json:"output_dir,omitempty" example:"models/llama2-7b-finetuned"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: Please select both a model and a dataset file
	Error string `json:"error" example:"Please select both a model and a dataset file"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
	// Failure kind (validation, busy, network, upload, training_start).
	// example: validation
	Kind string `json:"kind,omitempty" example:"validation"`
}

// SubmissionResult summarizes a successful upload-and-start sequence.
type SubmissionResult struct {
	// example: llama2-7b
	ModelName string `json:"model_name" example:"llama2-7b"`
	// example: uploads/train.jsonl
	DatasetPath string `json:"dataset_path" example:"uploads/train.jsonl"`
	// True when a previously uploaded reference was reused instead of uploading again.
	UploadReused bool `json:"upload_reused"`
	// example: success
	Status    string `json:"status,omitempty" example:"success"`
	Message   string `json:"message,omitempty"`
	OutputDir string `json:"output_dir,omitempty"`
}

// SelectModelRequest is the body of PUT /api/model.
type SelectModelRequest struct {
	// example: llama2-7b
	ModelName string `json:"model_name" example:"llama2-7b"`
}

// HyperparameterEdit is the body of PUT /api/hyperparameters/{group}/{key}.
type HyperparameterEdit struct {
	// Raw edit value; numbers and numeric strings are accepted.
	// example: 0.75
	Value RawNumber `json:"value" swaggertype:"string" example:"0.75"`
}

// HyperparameterValue reports the stored value after a committed edit.
type HyperparameterValue struct {
	// example: training_params
	Group string `json:"group" example:"training_params"`
	// example: learning_rate
	Key string `json:"key" example:"learning_rate"`
	// example: 0.0002
	Value float64 `json:"value" example:"0.0002"`
}

// RawNumber holds the textual form of a JSON number or string so that parsing
// decisions stay with the edit boundary.
type RawNumber string

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (n *RawNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("invalid string value: %w", err)
		}
		*n = RawNumber(unq)
		return nil
	}
	*n = RawNumber(s)
	return nil
}
