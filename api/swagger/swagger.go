package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {"title": "Final Project API", "description": "Students, advisors and final project assignments", "version": "1.0.0"},
    "basePath": "/",
    "schemes": ["http"],
    "securityDefinitions": {"BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}},
    "tags": [{"name": "Authentication"}, {"name": "Students", "description": "Student records"}, {"name": "Advisors", "description": "Advisors and their quotas"}, {"name": "Advisor Roles"}, {"name": "Projects", "description": "Final projects and their supervisors"}, {"name": "Dashboard"}],
    "paths": {
        "/health": {
            "get": {"summary": "Liveness check", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {"summary": "Readiness check", "responses": {"200": {"description": "Ready"}, "503": {"description": "A dependency is unavailable"}}}
        },
        "/metrics": {
            "get": {"summary": "Prometheus metrics", "produces": ["text/plain"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/token": {
            "post": {"tags": ["Authentication"], "summary": "Obtain a token pair", "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/token/refresh": {
            "post": {"tags": ["Authentication"], "summary": "Refresh access token", "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/register": {
            "post": {"tags": ["Authentication"], "summary": "Create an account with its profile", "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/me": {
            "get": {"tags": ["Authentication"], "summary": "Current user", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/students": {
            "get": {"tags": ["Students"], "summary": "List students", "security": [{"BearerAuth": []}], "parameters": [{"name": "status", "in": "query", "type": "string"}, {"name": "major", "in": "query", "type": "string"}, {"name": "search", "in": "query", "type": "string"}, {"name": "page", "in": "query", "type": "integer"}, {"name": "limit", "in": "query", "type": "integer"}, {"name": "sort", "in": "query", "type": "string"}, {"name": "order", "in": "query", "type": "string", "enum": ["asc", "desc"]}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "post": {"tags": ["Students"], "summary": "Create student", "security": [{"BearerAuth": []}], "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentPayload"}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/students/{id}": {
            "get": {"tags": ["Students"], "summary": "Get student", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "put": {"tags": ["Students"], "summary": "Replace student", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}, {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentPayload"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "delete": {"tags": ["Students"], "summary": "Delete student", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}], "responses": {"204": {"description": "Deleted"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "patch": {"tags": ["Students"], "summary": "Partially update student", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}, {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentPayload"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/advisors": {
            "get": {"tags": ["Advisors"], "summary": "List advisors", "security": [{"BearerAuth": []}], "parameters": [{"name": "department", "in": "query", "type": "string"}, {"name": "search", "in": "query", "type": "string"}, {"name": "page", "in": "query", "type": "integer"}, {"name": "limit", "in": "query", "type": "integer"}, {"name": "sort", "in": "query", "type": "string"}, {"name": "order", "in": "query", "type": "string", "enum": ["asc", "desc"]}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "post": {"tags": ["Advisors"], "summary": "Create advisor", "security": [{"BearerAuth": []}], "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AdvisorPayload"}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/advisors/{id}": {
            "get": {"tags": ["Advisors"], "summary": "Get advisor", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "put": {"tags": ["Advisors"], "summary": "Replace advisor", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}, {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AdvisorPayload"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "delete": {"tags": ["Advisors"], "summary": "Delete advisor", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}], "responses": {"204": {"description": "Deleted"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "patch": {"tags": ["Advisors"], "summary": "Partially update advisor", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}, {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AdvisorPayload"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/advisors/{id}/roles": {
            "put": {"tags": ["Advisors"], "summary": "Replace advisor roles", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}, {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AdvisorRolesAssignment"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/advisorroles": {
            "get": {"tags": ["Advisor Roles"], "summary": "List advisor roles", "security": [{"BearerAuth": []}], "parameters": [], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "post": {"tags": ["Advisor Roles"], "summary": "Create advisor role", "security": [{"BearerAuth": []}], "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AdvisorRolePayload"}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/advisorroles/{id}": {
            "get": {"tags": ["Advisor Roles"], "summary": "Get advisor role", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "put": {"tags": ["Advisor Roles"], "summary": "Replace advisor role", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}, {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AdvisorRolePayload"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "delete": {"tags": ["Advisor Roles"], "summary": "Delete advisor role", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}], "responses": {"204": {"description": "Deleted"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/projects": {
            "get": {"tags": ["Projects"], "summary": "List projects", "security": [{"BearerAuth": []}], "parameters": [{"name": "status", "in": "query", "type": "string"}, {"name": "advisor_id", "in": "query", "type": "string"}, {"name": "search", "in": "query", "type": "string"}, {"name": "page", "in": "query", "type": "integer"}, {"name": "limit", "in": "query", "type": "integer"}, {"name": "sort", "in": "query", "type": "string"}, {"name": "order", "in": "query", "type": "string", "enum": ["asc", "desc"]}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "post": {"tags": ["Projects"], "summary": "Create project", "security": [{"BearerAuth": []}], "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProjectPayload"}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/projects/{id}": {
            "get": {"tags": ["Projects"], "summary": "Get project", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "put": {"tags": ["Projects"], "summary": "Replace project", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}, {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProjectPayload"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "delete": {"tags": ["Projects"], "summary": "Delete project", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}], "responses": {"204": {"description": "Deleted"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "patch": {"tags": ["Projects"], "summary": "Partially update project", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}, {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProjectPayload"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/dashboard": {
            "get": {"tags": ["Dashboard"], "summary": "Record counts and advisor quota usage", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/api/v1/dashboard/export": {
            "get": {"tags": ["Dashboard"], "summary": "Download advisor quota usage", "security": [{"BearerAuth": []}], "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf", "xlsx"]}], "responses": {"200": {"description": "File"}, "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        }
    },
    "definitions": {
        "LoginRequest": {"type": "object", "required": ["username", "password"], "properties": {"username": {"type": "string"}, "password": {"type": "string"}}},
        "RefreshTokenRequest": {"type": "object", "required": ["refresh"], "properties": {"refresh": {"type": "string"}}},
        "RegisterRequest": {"type": "object", "required": ["username", "password", "email", "first_name", "last_name", "role"], "properties": {"username": {"type": "string"}, "password": {"type": "string"}, "email": {"type": "string", "format": "email"}, "first_name": {"type": "string"}, "last_name": {"type": "string"}, "role": {"type": "string", "enum": ["admin", "staff", "lecturer", "student"]}, "student_id": {"type": "string"}, "major": {"type": "string"}, "year_enrolled": {"type": "integer"}, "department": {"type": "string"}, "position": {"type": "string"}}},
        "StudentPayload": {"type": "object", "properties": {"first_name": {"type": "string"}, "last_name": {"type": "string"}, "student_id": {"type": "string"}, "date_of_birth": {"type": "string", "format": "date"}, "phone_number": {"type": "string"}, "email": {"type": "string", "format": "email"}, "address": {"type": "string"}, "major": {"type": "string"}, "year_enrolled": {"type": "integer"}, "graduation_year_estimate": {"type": "integer"}, "gpa": {"type": "number"}, "status": {"type": "string", "enum": ["studying", "graduated", "leave"]}}},
        "AdvisorPayload": {"type": "object", "properties": {"first_name": {"type": "string"}, "last_name": {"type": "string"}, "position": {"type": "string"}, "department": {"type": "string"}, "phone_number": {"type": "string"}, "email": {"type": "string", "format": "email"}, "leading_quota": {"type": "integer"}, "committee_quota": {"type": "integer"}}},
        "AdvisorRolePayload": {"type": "object", "required": ["role"], "properties": {"role": {"type": "string", "enum": ["advisor", "committee"]}}},
        "AdvisorRolesAssignment": {"type": "object", "properties": {"role_ids": {"type": "array", "items": {"type": "string", "format": "uuid"}}}},
        "ProjectPayload": {"type": "object", "properties": {"title": {"type": "string"}, "description": {"type": "string"}, "submission_date": {"type": "string", "format": "date"}, "status": {"type": "string", "enum": ["in_progress", "completed", "pending_review"]}, "students": {"type": "array", "items": {"type": "string", "format": "uuid"}}, "advisor": {"type": "string", "format": "uuid"}, "committee_members": {"type": "array", "items": {"type": "string", "format": "uuid"}}}},
        "Pagination": {"type": "object", "properties": {"page": {"type": "integer"}, "page_size": {"type": "integer"}, "total_count": {"type": "integer"}}},
        "APIError": {"type": "object", "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "status": {"type": "integer"}, "fields": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}}},
        "ResponseEnvelope": {"type": "object", "properties": {"data": {"type": "object"}, "error": {"$ref": "#/definitions/APIError"}, "pagination": {"$ref": "#/definitions/Pagination"}, "meta": {"type": "object"}}}
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
