// Package docs holds the Swagger 2.0 document served under /swagger/ when
// built with -tags=swagger. It is maintained by hand alongside the swag
// annotations in internal/httpapi.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "tunelab maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/state": {
            "get": {
                "produces": ["application/json"],
                "tags": ["panel"],
                "summary": "Panel state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PanelState"}}
                }
            }
        },
        "/api/models": {
            "get": {
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Loaded models",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}
                }
            }
        },
        "/api/models/refresh": {
            "post": {
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Reload models from the training service",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/model": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Select a model",
                "parameters": [
                    {"description": "Model", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.SelectModelRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PanelState"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/dataset": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["dataset"],
                "summary": "Select a dataset file",
                "parameters": [
                    {"type": "file", "description": "Dataset", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DatasetInfo"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/hyperparameters/{group}/{key}": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["hyperparameters"],
                "summary": "Commit a hyperparameter edit",
                "parameters": [
                    {"type": "string", "description": "Group", "name": "group", "in": "path", "required": true},
                    {"type": "string", "description": "Key", "name": "key", "in": "path", "required": true},
                    {"description": "Value", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.HyperparameterEdit"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HyperparameterValue"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/submit": {
            "post": {
                "produces": ["application/json"],
                "tags": ["training"],
                "summary": "Upload the dataset and start training",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SubmissionResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.DatasetInfo": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "train.jsonl"},
                "size": {"type": "integer", "example": 2048},
                "uploaded_path": {"type": "string", "example": "uploads/train.jsonl"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 502},
                "error": {"type": "string", "example": "Failed to upload dataset"},
                "kind": {"type": "string", "example": "upload"}
            }
        },
        "types.HyperparameterEdit": {
            "type": "object",
            "properties": {
                "value": {"type": "string", "example": "0.75"}
            }
        },
        "types.HyperparameterValue": {
            "type": "object",
            "properties": {
                "group": {"type": "string", "example": "lora_config"},
                "key": {"type": "string", "example": "lora_dropout"},
                "value": {"type": "number", "example": 0.5}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"type": "string"}}
            }
        },
        "types.PanelState": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"type": "string"}},
                "selected_model": {"type": "string"},
                "dataset": {"$ref": "#/definitions/types.DatasetInfo"},
                "in_flight": {"type": "boolean"},
                "loading_models": {"type": "boolean"},
                "last_error": {"type": "string"}
            }
        },
        "types.SelectModelRequest": {
            "type": "object",
            "properties": {
                "model_name": {"type": "string", "example": "mistral-7b"}
            }
        },
        "types.SubmissionResult": {
            "type": "object",
            "properties": {
                "model_name": {"type": "string"},
                "dataset_path": {"type": "string"},
                "upload_reused": {"type": "boolean"},
                "status": {"type": "string", "example": "success"},
                "message": {"type": "string"},
                "output_dir": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "tunelab API",
	Description:      "Fine-tuning control panel: model selection, dataset upload and training start.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
