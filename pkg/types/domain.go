package types

// DatasetInfo describes the dataset currently selected in the panel.
type DatasetInfo struct {
	// example: train.jsonl
	Name string `json:"name" example:"train.jsonl"`
	// Size in bytes.
	// example: 2048
	Size int `json:"size" example:"2048"`
	// Reference path if this selection was already uploaded.
	UploadedPath string `json:"uploaded_path,omitempty"`
}

// ProgressView reflects the in-flight indicator.
type ProgressView struct {
	Visible bool   `json:"visible"`
	Title   string `json:"title,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// NotificationView is a transient user-facing message.
type NotificationView struct {
	ID string `json:"id"`
	// One of info, success, error.
	// example: success
	Level   string `json:"level" example:"success"`
	Title   string `json:"title" example:"Success"`
	Message string `json:"message" example:"Training started successfully"`
	// Unix seconds.
	Time int64 `json:"time_unix" example:"1700000000"`
}

// PanelState is returned by GET /api/state.
type PanelState struct {
	Models          []string                      `json:"models"`
	SelectedModel   string                        `json:"selected_model,omitempty"`
	Dataset         *DatasetInfo                  `json:"dataset,omitempty"`
	Hyperparameters map[string]map[string]float64 `json:"hyperparameters"`
	InFlight        bool                          `json:"in_flight"`
	LoadingModels   bool                          `json:"loading_models"`
	LastError       string                        `json:"last_error,omitempty"`
	Progress        ProgressView                  `json:"progress"`
	Notifications   []NotificationView            `json:"notifications,omitempty"`
}
