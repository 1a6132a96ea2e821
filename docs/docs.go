// Package docs holds the OpenAPI description served under /swagger.
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
        "/calls": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["calls"],
                "summary": "Create a reminder call",
                "parameters": [
                    {
                        "description": "Call request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/model.CallRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/aicalling/records/{country_code}/{agent_id}/{date}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "List call records",
                "parameters": [
                    {"type": "string", "description": "Country code (unused)", "name": "country_code", "in": "path", "required": true},
                    {"type": "string", "description": "Agent id", "name": "agent_id", "in": "path", "required": true},
                    {"type": "string", "description": "Day, YYYY-MM-DD", "name": "date", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.CallRecord"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/aicalling/reports/{agent_id}/{date}": {
            "get": {
                "produces": ["text/csv"],
                "tags": ["records"],
                "summary": "Download daily call report",
                "parameters": [
                    {"type": "string", "description": "Agent id", "name": "agent_id", "in": "path", "required": true},
                    {"type": "string", "description": "Day, YYYY-MM-DD", "name": "date", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/aicalling/reports/{agent_id}/{date}/link": {
            "get": {
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "Presigned report link",
                "parameters": [
                    {"type": "string", "description": "Agent id", "name": "agent_id", "in": "path", "required": true},
                    {"type": "string", "description": "Day, YYYY-MM-DD", "name": "date", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/aicalling/conversations/{conversation_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "Call record by conversation",
                "parameters": [
                    {"type": "string", "description": "Agent conversation id", "name": "conversation_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.CallRecord"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/aicalling/agents": {
            "get": {
                "produces": ["application/json"],
                "tags": ["agents"],
                "summary": "List agents",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/elevenlabs/callback/outbound-call-status": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["text/plain"],
                "tags": ["telephony"],
                "summary": "Telephony call status callback",
                "parameters": [
                    {"type": "string", "description": "Agent id", "name": "agent_id", "in": "query"},
                    {"type": "string", "description": "Dialed number", "name": "To", "in": "formData", "required": true},
                    {"type": "string", "description": "Call status", "name": "CallStatus", "in": "formData", "required": true},
                    {"type": "string", "description": "Dialed country", "name": "ToCountry", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}},
                    "400": {"description": "Missing required parameters", "schema": {"type": "string"}}
                }
            }
        },
        "/update-recent-records": {
            "post": {
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "Sync conversation analysis into recent records",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/outbound-call-twiml": {
            "post": {
                "produces": ["application/xml"],
                "tags": ["telephony"],
                "summary": "TwiML for an outbound call",
                "parameters": [
                    {"type": "string", "description": "Greeting", "name": "first_message", "in": "query", "required": true},
                    {"type": "string", "description": "Scheduled time", "name": "time", "in": "query", "required": true},
                    {"type": "string", "description": "Dialed number", "name": "calling_to", "in": "query", "required": true},
                    {"type": "string", "description": "Agent prompt", "name": "prompt", "in": "query", "required": true},
                    {"type": "string", "description": "Caller id", "name": "phone_number", "in": "query", "required": true},
                    {"type": "string", "description": "Agent id", "name": "agent_id", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        }
    },
    "definitions": {
        "handler.errorEnvelope": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.errorPayload": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/handler.errorEnvelope"},
                "request_id": {"type": "string"}
            }
        },
        "model.CallRequest": {
            "type": "object",
            "required": ["agent_id", "calling_to", "event_name", "event_type", "first_message", "phone_number", "prompt", "time"],
            "properties": {
                "agent_id": {"type": "string"},
                "calling_to": {"type": "string"},
                "event_name": {"type": "string"},
                "event_type": {"type": "string"},
                "first_message": {"type": "string"},
                "phone_number": {"type": "string"},
                "prompt": {"type": "string"},
                "time": {"type": "string"}
            }
        },
        "model.CallRecord": {
            "type": "object",
            "properties": {
                "agent_id": {"type": "string"},
                "analysis": {"type": "object", "additionalProperties": {"type": "string"}},
                "call_date": {"type": "string"},
                "calling_to": {"type": "string"},
                "conversation_id": {"type": "string"},
                "created_at": {"type": "string"},
                "id": {"type": "string"},
                "prompt": {"type": "string"},
                "stage": {"type": "string"},
                "time": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Intelligent Reminder API",
	Description:      "Places AI agent reminder calls and reports their outcome.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
