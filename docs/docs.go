// Package docs registers the swagger document served at /swagger-doc.json.
// Keep it in step with the swag annotations on the handlers.
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
        "/todos": {
            "get": {
                "description": "Filters are ANDed. search matches title or description, case-insensitive.",
                "produces": ["application/json"],
                "tags": ["todos"],
                "summary": "List todos with filters and pagination",
                "parameters": [
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 10, "description": "Page size", "name": "size", "in": "query"},
                    {"enum": ["pending", "in_progress", "completed"], "type": "string", "description": "Status", "name": "status", "in": "query"},
                    {"enum": ["low", "medium", "high"], "type": "string", "description": "Priority", "name": "priority", "in": "query"},
                    {"type": "string", "description": "Text in title or description", "name": "search", "in": "query"},
                    {"type": "string", "description": "Exact tag", "name": "tag", "in": "query"},
                    {"type": "string", "description": "due_date <= value", "name": "due_before", "in": "query"},
                    {"type": "string", "description": "due_date >= value", "name": "due_after", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ListTodosResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.ValidationErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["todos"],
                "summary": "Create a todo",
                "parameters": [
                    {"description": "Todo body", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateTodoRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.TodoResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.ValidationErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/todos/bulk": {
            "put": {
                "description": "If any id is missing nothing is updated and the missing ids are reported.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["todos"],
                "summary": "Update several todos at once",
                "parameters": [
                    {"description": "id -> partial update", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.BulkUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.TodoResponse"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.ValidationErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Every item is validated before anything is inserted.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["todos"],
                "summary": "Create up to 100 todos at once",
                "parameters": [
                    {"description": "Todos", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.BulkCreateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.TodoResponse"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.ValidationErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/todos/search": {
            "post": {
                "description": "query is required. All given tags must be present.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["todos"],
                "summary": "Search todos",
                "parameters": [
                    {"description": "Search body", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.SearchRequest"}},
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "description": "Page size", "name": "size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ListTodosResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.ValidationErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/todos/stats": {
            "get": {
                "description": "start_date/end_date bound created_at inclusively for every figure.",
                "produces": ["application/json"],
                "tags": ["todos"],
                "summary": "Todo statistics",
                "parameters": [
                    {"type": "string", "description": "created_at >= value", "name": "start_date", "in": "query"},
                    {"type": "string", "description": "created_at <= value", "name": "end_date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.StatsResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.ValidationErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/todos/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["todos"],
                "summary": "Get a todo by ID",
                "parameters": [
                    {"type": "string", "description": "Todo ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.TodoResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "put": {
                "description": "Absent fields are unchanged. null clears description and due_date and empties tags.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["todos"],
                "summary": "Update a todo",
                "parameters": [
                    {"type": "string", "description": "Todo ID", "name": "id", "in": "path", "required": true},
                    {"description": "Full or partial update", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateTodoRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.TodoResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.ValidationErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["todos"],
                "summary": "Delete a todo",
                "parameters": [
                    {"type": "string", "description": "Todo ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/todos/{id}/status": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["todos"],
                "summary": "Change a todo's status",
                "parameters": [
                    {"type": "string", "description": "Todo ID", "name": "id", "in": "path", "required": true},
                    {"description": "New status", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.TodoResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.ValidationErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.FieldError": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "dto.BulkCreateRequest": {
            "type": "object",
            "required": ["todos"],
            "properties": {
                "todos": {"type": "array", "maxItems": 100, "minItems": 1, "items": {"$ref": "#/definitions/dto.CreateTodoRequest"}}
            }
        },
        "dto.BulkUpdateRequest": {
            "type": "object",
            "required": ["updates"],
            "properties": {
                "updates": {"type": "object", "additionalProperties": {"$ref": "#/definitions/dto.UpdateTodoRequest"}}
            }
        },
        "dto.CreateTodoRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "description": {"type": "string"},
                "due_date": {"type": "string", "format": "date-time"},
                "priority": {"type": "string", "enum": ["low", "medium", "high"]},
                "status": {"type": "string", "enum": ["pending", "in_progress", "completed"]},
                "tags": {"type": "array", "items": {"type": "string"}},
                "title": {"type": "string", "maxLength": 200, "minLength": 1}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "detail": {"type": "string"}
            }
        },
        "dto.ListTodosResponse": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "size": {"type": "integer"},
                "todos": {"type": "array", "items": {"$ref": "#/definitions/dto.TodoResponse"}},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "dto.SearchRequest": {
            "type": "object",
            "required": ["query"],
            "properties": {
                "due_after": {"type": "string", "format": "date-time"},
                "due_before": {"type": "string", "format": "date-time"},
                "priority": {"type": "string", "enum": ["low", "medium", "high"]},
                "query": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "in_progress", "completed"]},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.StatsResponse": {
            "type": "object",
            "properties": {
                "completed_todos": {"type": "integer"},
                "completion_rate": {"type": "number"},
                "high_priority_todos": {"type": "integer"},
                "in_progress_todos": {"type": "integer"},
                "overdue_by_priority": {"type": "object", "additionalProperties": {"type": "integer"}},
                "overdue_todos": {"type": "integer"},
                "pending_todos": {"type": "integer"},
                "todos_by_priority": {"type": "object", "additionalProperties": {"type": "integer"}},
                "todos_by_status": {"type": "object", "additionalProperties": {"type": "integer"}},
                "todos_by_tag": {"type": "object", "additionalProperties": {"type": "integer"}},
                "total_todos": {"type": "integer"}
            }
        },
        "dto.TodoResponse": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "description": {"type": "string"},
                "due_date": {"type": "string"},
                "id": {"type": "string"},
                "priority": {"type": "string", "enum": ["low", "medium", "high"]},
                "status": {"type": "string", "enum": ["pending", "in_progress", "completed"]},
                "tags": {"type": "array", "items": {"type": "string"}},
                "title": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "dto.UpdateStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["pending", "in_progress", "completed"]}
            }
        },
        "dto.UpdateTodoRequest": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "due_date": {"type": "string", "format": "date-time"},
                "priority": {"type": "string", "enum": ["low", "medium", "high"]},
                "status": {"type": "string", "enum": ["pending", "in_progress", "completed"]},
                "tags": {"type": "array", "items": {"type": "string"}},
                "title": {"type": "string"}
            }
        },
        "dto.ValidationErrorResponse": {
            "type": "object",
            "properties": {
                "detail": {"type": "array", "items": {"$ref": "#/definitions/domain.FieldError"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Todo API",
	Description:      "Todo CRUD with filtering, pagination, search, statistics and bulk operations.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
