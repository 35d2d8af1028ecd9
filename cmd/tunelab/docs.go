package main

// General API documentation for swaggo. Run `swag init -g cmd/tunelab/docs.go -d ./,./internal/httpapi` to regenerate docs/.
//
// @title           tunelab API
// @version         1.0
// @description     Fine-tuning control panel: model selection, dataset upload and training start.
//
// @contact.name   tunelab maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
