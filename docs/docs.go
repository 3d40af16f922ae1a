// Package docs registers the Thinkly OpenAPI document with swag.
// Regenerate with: swag init -g cmd/server/main.go
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
        "/auth/register": {"post": {"tags": ["Auth"], "summary": "Register", "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/models.RegisterRequest"}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/models.AuthResponse"}}, "400": {"description": "Bad Request"}, "409": {"description": "Username or email taken"}}}},
        "/auth/login": {"post": {"tags": ["Auth"], "summary": "Login", "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/models.LoginRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.AuthResponse"}}, "401": {"description": "Unauthorized"}}}},
        "/auth/logout": {"post": {"security": [{"BearerAuth": []}], "tags": ["Auth"], "summary": "Logout", "responses": {"204": {"description": "No Content"}}}},
        "/auth/password/forgot": {"post": {"tags": ["Auth"], "summary": "Request password reset", "responses": {"202": {"description": "Accepted"}}}},
        "/auth/password/reset": {"post": {"tags": ["Auth"], "summary": "Reset password", "responses": {"204": {"description": "No Content"}, "401": {"description": "Invalid or expired token"}}}},
        "/auth/password/change": {"post": {"security": [{"BearerAuth": []}], "tags": ["Auth"], "summary": "Change password", "responses": {"204": {"description": "No Content"}}}},
        "/me": {"get": {"security": [{"BearerAuth": []}], "tags": ["Auth"], "summary": "Current user", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.User"}}}}},
        "/competitions": {"get": {"tags": ["Competitions"], "summary": "List competitions", "parameters": [{"type": "string", "in": "query", "name": "status"}], "responses": {"200": {"description": "OK"}}}},
        "/competitions/current": {"get": {"tags": ["Competitions"], "summary": "Current competition", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/competitions/{id}": {"get": {"tags": ["Competitions"], "summary": "Competition detail", "parameters": [{"type": "integer", "in": "path", "name": "id", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/competitions/{id}/submissions": {"post": {"security": [{"BearerAuth": []}], "tags": ["Competitions"], "summary": "Submit answer", "parameters": [{"type": "integer", "in": "path", "name": "id", "required": true}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/models.SubmissionRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SubmissionResult"}}, "409": {"description": "Already solved"}}}},
        "/leaderboard/current": {"get": {"tags": ["Leaderboards"], "summary": "Live leaderboard", "responses": {"200": {"description": "OK"}, "404": {"description": "No competition"}}}},
        "/leaderboard/history": {"get": {"tags": ["Leaderboards"], "summary": "Leaderboard history", "responses": {"200": {"description": "OK"}}}},
        "/leaderboard/competitions/{id}": {"get": {"tags": ["Leaderboards"], "summary": "Competition leaderboard", "parameters": [{"type": "integer", "in": "path", "name": "id", "required": true}, {"type": "integer", "default": 1, "in": "query", "name": "page"}, {"type": "integer", "default": 25, "in": "query", "name": "limit"}], "responses": {"200": {"description": "OK"}}}},
        "/leaderboard/competitions/{id}/me": {"get": {"security": [{"BearerAuth": []}], "tags": ["Leaderboards"], "summary": "My standing", "parameters": [{"type": "integer", "in": "path", "name": "id", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/questions": {"get": {"tags": ["Questions"], "summary": "List questions", "responses": {"200": {"description": "OK"}}}},
        "/questions/{id}": {"get": {"tags": ["Questions"], "summary": "Get question", "parameters": [{"type": "integer", "in": "path", "name": "id", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/riddles": {"get": {"tags": ["Questions"], "summary": "List riddles", "responses": {"200": {"description": "OK"}}}},
        "/riddles/{id}": {"get": {"tags": ["Questions"], "summary": "Get riddle", "parameters": [{"type": "integer", "in": "path", "name": "id", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/admin/dashboard": {"get": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "Admin dashboard", "responses": {"200": {"description": "OK"}}}},
        "/admin/users": {"get": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "List users", "responses": {"200": {"description": "OK"}}}},
        "/admin/competitions": {"post": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "Create competition", "responses": {"201": {"description": "Created"}, "409": {"description": "Overlaps another competition"}}}},
        "/admin/system/install": {"post": {"security": [{"BearerAuth": []}], "tags": ["Admin"], "summary": "Install Database Schema", "responses": {"200": {"description": "OK"}}}},
        "/health": {"get": {"tags": ["System"], "summary": "Liveness", "responses": {"200": {"description": "OK"}}}},
        "/ready": {"get": {"tags": ["System"], "summary": "Readiness", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}}
    },
    "definitions": {
        "models.RegisterRequest": {"type": "object", "required": ["email", "password", "username"], "properties": {"email": {"type": "string"}, "password": {"type": "string"}, "username": {"type": "string"}}},
        "models.LoginRequest": {"type": "object", "required": ["identifier", "password"], "properties": {"identifier": {"type": "string"}, "password": {"type": "string"}}},
        "models.User": {"type": "object", "properties": {"id": {"type": "integer"}, "username": {"type": "string"}, "email": {"type": "string"}, "is_admin": {"type": "boolean"}, "email_notifications": {"type": "boolean"}, "created_at": {"type": "string"}}},
        "models.AuthResponse": {"type": "object", "properties": {"access_token": {"type": "string"}, "token_type": {"type": "string"}, "expires_at": {"type": "string"}, "user": {"$ref": "#/definitions/models.User"}}},
        "models.SubmissionRequest": {"type": "object", "required": ["answer", "instance_id", "kind"], "properties": {"kind": {"type": "string", "enum": ["question", "riddle"]}, "instance_id": {"type": "integer"}, "answer": {"type": "string"}}},
        "models.SubmissionResult": {"type": "object", "properties": {"correct": {"type": "boolean"}, "points_awarded": {"type": "integer"}, "total_score": {"type": "integer"}, "problems_solved": {"type": "integer"}, "elapsed_time": {"type": "number"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Thinkly API",
	Description:      "Weekly coding competitions: question bank, submissions and leaderboards.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
