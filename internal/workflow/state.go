package workflow

import (
	"tunelab/internal/hparams"
	"tunelab/pkg/types"
)

// DatasetFile is a user-supplied dataset held in memory until uploaded.
type DatasetFile struct {
	Name string
	Data []byte
}

// AcceptedExtensions lists the dataset file types the training service is
// known to read. It is a hint for pickers; the service validates content.
var AcceptedExtensions = []string{".json", ".jsonl", ".csv", ".xlsx", ".txt"}

// SelectionState is the Controller's working state.
type SelectionState struct {
	// Models from the last successful fetch, in service order.
	Models []string
	// ModelsLoaded is set once any fetch has succeeded.
	ModelsLoaded bool
	// Model is empty until chosen.
	Model string
	// Dataset is nil until chosen.
	Dataset         *DatasetFile
	Hyperparameters hparams.Values
	// InFlight guards submissions; at most one runs per Controller.
	InFlight      bool
	LoadingModels bool
	// LastError is the message of the most recent failure, cleared by the
	// next successful load or submission.
	LastError string
}

// Snapshot is a read-only copy of SelectionState.
type Snapshot struct {
	SelectionState
	// UploadedPath is the reference path of the current dataset if it was
	// already uploaded.
	UploadedPath string
}

// uploadRef binds a reference path to the file selection it came from.
type uploadRef struct {
	gen  uint64
	path string
}

func (s SelectionState) clone() SelectionState {
	out := s
	out.Models = append([]string(nil), s.Models...)
	out.Hyperparameters = s.Hyperparameters.Clone()
	if s.Dataset != nil {
		d := *s.Dataset
		out.Dataset = &d
	}
	return out
}

// toPanelState projects a snapshot for the JSON API.
func (s Snapshot) toPanelState() types.PanelState {
	ps := types.PanelState{
		Models:          s.Models,
		SelectedModel:   s.Model,
		Hyperparameters: map[string]map[string]float64(s.Hyperparameters),
		InFlight:        s.InFlight,
		LoadingModels:   s.LoadingModels,
		LastError:       s.LastError,
	}
	if ps.Models == nil {
		ps.Models = []string{}
	}
	if s.Dataset != nil {
		ps.Dataset = &types.DatasetInfo{Name: s.Dataset.Name, Size: len(s.Dataset.Data), UploadedPath: s.UploadedPath}
	}
	return ps
}
