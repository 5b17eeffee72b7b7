// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with `swag init -g cmd/server/main.go` after changing handler
// annotations.
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
        "/chat": {
            "post": {
                "tags": ["Chat"],
                "summary": "Answer one message without storing it",
                "operationId": "chat",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header"},
                    {"description": "Message", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.HandleResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/scam/analyze": {
            "post": {
                "tags": ["Chat"],
                "summary": "Classify a message as scam or not",
                "operationId": "analyzeScam",
                "parameters": [
                    {"description": "Text", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.AnalyzeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.AnalyzeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/scam/analyze-image": {
            "post": {
                "tags": ["Chat"],
                "summary": "Screen an image by URL",
                "operationId": "analyzeImage",
                "parameters": [
                    {"description": "Image", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.AnalyzeImageRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.AnalyzeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/conversations": {
            "get": {
                "tags": ["Conversations"],
                "summary": "List the caller's conversations",
                "operationId": "listConversations",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header"},
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListConversationsResponse"}},
                    "304": {"description": "Not modified"}
                }
            },
            "post": {
                "tags": ["Conversations"],
                "summary": "Create a conversation",
                "operationId": "createConversation",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header"},
                    {"description": "Optional title", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/handlers.CreateConversationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Conversation"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/conversations/{id}/title": {
            "put": {
                "tags": ["Conversations"],
                "summary": "Rename a conversation",
                "operationId": "updateConversationTitle",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Conversation id", "name": "id", "in": "path", "required": true},
                    {"description": "Title", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateTitleRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/conversations/{id}/turns": {
            "get": {
                "tags": ["Turns"],
                "summary": "List the turns of a conversation",
                "operationId": "listTurns",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Conversation id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListTurnsResponse"}},
                    "304": {"description": "Not modified"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "tags": ["Turns"],
                "summary": "Send a message and get the assistant reply",
                "operationId": "postTurn",
                "parameters": [
                    {"type": "string", "description": "Key for safe retries", "name": "Idempotency-Key", "in": "header"},
                    {"type": "string", "format": "uuid", "description": "Conversation id", "name": "id", "in": "path", "required": true},
                    {"description": "Message", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.PostTurnRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.PostTurnResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/turns/{id}/feedback": {
            "post": {
                "tags": ["Feedback"],
                "summary": "Rate an assistant turn",
                "operationId": "leaveFeedback",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Turn id", "name": "id", "in": "path", "required": true},
                    {"description": "Rating", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LeaveFeedbackRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/usage": {
            "get": {
                "security": [{"AdminToken": []}],
                "tags": ["Admin"],
                "summary": "Global usage windows",
                "operationId": "usageSnapshot",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}
            }
        },
        "/admin/usage/top": {
            "get": {
                "security": [{"AdminToken": []}],
                "tags": ["Admin"],
                "summary": "Most active users",
                "operationId": "topUsers",
                "parameters": [{"type": "integer", "default": 10, "description": "How many users", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/usage/users/{uid}": {
            "get": {
                "security": [{"AdminToken": []}],
                "tags": ["Admin"],
                "summary": "Usage of one user",
                "operationId": "userUsage",
                "parameters": [{"type": "string", "description": "User id", "name": "uid", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}
            },
            "delete": {
                "security": [{"AdminToken": []}],
                "tags": ["Admin"],
                "summary": "Clear one user's usage record",
                "operationId": "resetUserUsage",
                "parameters": [{"type": "string", "description": "User id", "name": "uid", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}
            }
        },
        "/admin/usage/generate-id": {
            "post": {
                "security": [{"AdminToken": []}],
                "tags": ["Admin"],
                "summary": "Mint a temporary user id",
                "operationId": "generateUserId",
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.GeneratedIDResponse"}}}
            }
        },
        "/admin/abuse/users/{uid}": {
            "get": {
                "security": [{"AdminToken": []}],
                "tags": ["Admin"],
                "summary": "Abuse record of one user",
                "operationId": "abuseStatus",
                "parameters": [{"type": "string", "description": "User id", "name": "uid", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}
            },
            "delete": {
                "security": [{"AdminToken": []}],
                "tags": ["Admin"],
                "summary": "Clear one user's abuse record",
                "operationId": "resetAbuse",
                "parameters": [{"type": "string", "description": "User id", "name": "uid", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "code": {"type": "string", "example": "bad_request"},
                "message": {"type": "string"}
            }
        },
        "handlers.HistoryItem": {
            "type": "object",
            "required": ["content", "role"],
            "properties": {
                "role": {"type": "string", "enum": ["user", "assistant"]},
                "content": {"type": "string"}
            }
        },
        "handlers.ChatRequest": {
            "type": "object",
            "required": ["message"],
            "properties": {
                "message": {"type": "string"},
                "user_id": {"type": "string"},
                "history": {"type": "array", "items": {"$ref": "#/definitions/handlers.HistoryItem"}},
                "is_group": {"type": "boolean"},
                "language": {"type": "string", "example": "zh-TW"},
                "llm_only": {"type": "boolean"}
            }
        },
        "handlers.AnalyzeRequest": {
            "type": "object",
            "required": ["text"],
            "properties": {"text": {"type": "string"}}
        },
        "handlers.AnalyzeImageRequest": {
            "type": "object",
            "required": ["image_url"],
            "properties": {"image_url": {"type": "string"}}
        },
        "handlers.AnalyzeResponse": {
            "type": "object",
            "properties": {
                "result": {"type": "object"},
                "summary": {"type": "string"}
            }
        },
        "handlers.CreateConversationRequest": {
            "type": "object",
            "properties": {"title": {"type": "string"}}
        },
        "handlers.UpdateTitleRequest": {
            "type": "object",
            "properties": {"title": {"type": "string"}}
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        },
        "handlers.ListConversationsResponse": {
            "type": "object",
            "properties": {
                "conversations": {"type": "array", "items": {"$ref": "#/definitions/domain.Conversation"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.PostTurnRequest": {
            "type": "object",
            "required": ["message"],
            "properties": {
                "message": {"type": "string"},
                "language": {"type": "string"},
                "llm_only": {"type": "boolean"}
            }
        },
        "handlers.PostTurnResponse": {
            "type": "object",
            "properties": {
                "turn": {"$ref": "#/definitions/domain.Turn"},
                "result": {"$ref": "#/definitions/services.HandleResult"}
            }
        },
        "handlers.ListTurnsResponse": {
            "type": "object",
            "properties": {
                "turns": {"type": "array", "items": {"$ref": "#/definitions/domain.Turn"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.LeaveFeedbackRequest": {
            "type": "object",
            "required": ["value"],
            "properties": {"value": {"type": "integer", "enum": [-1, 1]}}
        },
        "handlers.GeneratedIDResponse": {
            "type": "object",
            "properties": {"user_id": {"type": "string"}}
        },
        "domain.Conversation": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "title": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.Turn": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "conversation_id": {"type": "string"},
                "role": {"type": "string"},
                "content": {"type": "string"},
                "decision_type": {"type": "string"},
                "is_scam": {"type": "boolean"},
                "scam_type": {"type": "string"},
                "confidence": {"type": "number"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "services.HandleResult": {
            "type": "object",
            "properties": {
                "response": {"type": "string"},
                "user_id": {"type": "string"},
                "is_scam": {"type": "boolean"},
                "matched_categories": {"type": "array", "items": {"type": "string"}},
                "confidence": {"type": "number"},
                "decision_type": {"type": "string"},
                "priority": {"type": "string"},
                "alert_level": {"type": "string"},
                "values_filtered": {"type": "array", "items": {"type": "string"}},
                "blocked": {"type": "string"},
                "cooldown_remaining": {"type": "integer"},
                "tokens": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "AdminToken": {"type": "apiKey", "name": "X-Admin-Token", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Anti-scam Chat API",
	Description:      "Screens chat messages for scams, crises and abuse and answers as a friendly assistant.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
