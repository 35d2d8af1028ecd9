package httpapi

import (
	"context"

	"tunelab/internal/workflow"
)

// maxBodyBytes bounds JSON request bodies.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes sets the JSON body limit (1 MiB when n <= 0).
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// maxUploadBytes bounds dataset uploads from the panel and API.
var maxUploadBytes int64 = 512 << 20

// SetMaxUploadBytes sets the dataset size limit (512 MiB when n <= 0).
func SetMaxUploadBytes(n int64) {
	if n <= 0 {
		maxUploadBytes = 512 << 20
		return
	}
	maxUploadBytes = n
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS for the JSON API.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// notes backs the notification list of the panel. Nil hides notifications.
var notes *workflow.MemoryNotifier

// SetNotifications installs the store the panel reads notifications from.
// The same store should be passed to the Controller as its Notifier.
func SetNotifications(n *workflow.MemoryNotifier) { notes = n }

// serverBaseCtx is canceled on shutdown. Defaults to Background.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level base context. Background
// submissions started from the panel run on it.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}
