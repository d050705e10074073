// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {"get": {"tags": ["health"], "summary": "Liveness probe", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/health/ai": {"get": {"tags": ["health"], "summary": "LLM provider probe", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "401": {"description": "invalid-api-key"}, "429": {"description": "quota-exceeded"}, "500": {"description": "error"}}}},
        "/ready": {"get": {"tags": ["health"], "summary": "Readiness probe", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "503": {"description": "not ready"}}}},
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register user", "consumes": ["application/json"], "produces": ["application/json"],
            "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/handlers.registerRequest"}}],
            "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/presenter.ErrorResponse"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/presenter.ErrorResponse"}}, "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/presenter.ErrorResponse"}}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Login", "consumes": ["application/json"], "produces": ["application/json"],
            "parameters": [{"in": "body", "name": "input", "required": true, "schema": {"$ref": "#/definitions/handlers.loginRequest"}}],
            "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/presenter.ErrorResponse"}}}}},
        "/auth/logout": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Logout", "responses": {"200": {"description": "OK"}}}},
        "/auth/check-duplicates": {"get": {"tags": ["auth"], "summary": "Check duplicates", "produces": ["application/json"],
            "parameters": [{"type": "string", "description": "candidate email", "name": "email", "in": "query"}, {"type": "string", "description": "candidate CPF, any representation", "name": "cpf", "in": "query"}],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/auth.DuplicateReport"}}, "503": {"description": "Service Unavailable"}}}},
        "/profile": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["profile"], "summary": "Get profile", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["profile"], "summary": "Update profile", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/questions": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["questions"], "summary": "Question history", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["questions"], "summary": "Ask a question", "responses": {"201": {"description": "Created"}, "429": {"description": "Too Many Requests"}, "502": {"description": "Bad Gateway"}, "503": {"description": "Service Unavailable"}}}
        },
        "/admin/login": {"post": {"tags": ["admin"], "summary": "Admin login", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/admin/stats": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Dashboard numbers", "responses": {"200": {"description": "OK"}}}},
        "/admin/users": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "List users", "responses": {"200": {"description": "OK"}}}},
        "/admin/users/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "User detail",
            "parameters": [{"type": "string", "description": "user id (UUID)", "name": "id", "in": "path", "required": true}],
            "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/admin/export/users.csv": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Export users", "produces": ["text/csv"], "responses": {"200": {"description": "OK"}}}},
        "/admin/duplicates": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Duplicate accounts", "responses": {"200": {"description": "OK"}}}},
        "/admin/duplicates/cleanup": {"post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Remove duplicate accounts", "responses": {"200": {"description": "OK"}}}},
        "/admin/cpf/canonicalize": {"post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Canonicalize stored CPFs", "responses": {"200": {"description": "OK"}}}}
    },
    "definitions": {
        "auth.DuplicateReport": {"type": "object", "properties": {"can_register": {"type": "boolean"}, "cpf_exists": {"type": "boolean"}, "email_exists": {"type": "boolean"}}},
        "handlers.loginRequest": {"type": "object", "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "handlers.registerRequest": {"type": "object", "properties": {"cpf": {"type": "string"}, "email": {"type": "string"}, "name": {"type": "string"}, "password": {"type": "string"}}},
        "presenter.ErrorResponse": {"type": "object", "properties": {"code": {"type": "string"}, "field": {"type": "string"}, "message": {"type": "string"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"description": "Token de autorização. Formatos aceitos: \"Bearer <JWT>\" ou \"<JWT>\".", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "LexAprendiz API",
	Description:      "Consultoria sobre a Lei da Aprendizagem com cadastro por CPF, histórico de perguntas e painel administrativo.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
