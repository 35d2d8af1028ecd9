// Package cli implements the tunelab command tree.
//
// Files by concern:
//   - root.go: root command, persistent flags, config and logger setup
//   - app.go: shared wiring (client, schema resolution, controller)
//   - serve.go: the web panel server
//   - models.go, schema.go, train.go: one-shot commands
//   - interactive.go, prompt.go: terminal prompts
package cli
