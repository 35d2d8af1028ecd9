// Package workflow owns the fine-tuning panel's selection state and performs
// the remote sequence behind it. It is structured into small files by concern:
//
//   - controller.go: Controller type, constructor, model and file selection.
//   - submit.go: Submit/Start and the upload-then-start sequence.
//   - state.go: SelectionState, Snapshot and the PanelState projection.
//   - errors.go: error kinds and helpers (IsBusy, IsValidation, ...).
//   - notify.go: Notification, Notifier and the in-memory notifier.
//   - metrics.go: Prometheus counters for submissions.
//
// Presentation layers (httpapi, cli) only issue Controller commands and read
// snapshots; they never mutate state directly.
package workflow
