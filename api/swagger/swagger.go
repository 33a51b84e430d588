package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Voluntix Roster API",
        "description": "Multi-tenant volunteer roster scheduling core",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Availability", "description": "Self-service blocked dates and quota"},
        {"name": "Scales", "description": "Suggestion engine and scale lifecycle"},
        {"name": "Substitutions", "description": "Peer-to-peer swap workflow"},
        {"name": "History", "description": "Append-only service ledger"}
    ],
    "paths": {
        "/availability/blocked-dates": {
            "post": {
                "tags": ["Availability"],
                "summary": "Block a date",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BlockDateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already blocked or quota exceeded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Availability"],
                "summary": "Unblock a date",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UnblockDateRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/availability/blocked-days": {
            "get": {
                "tags": ["Availability"],
                "summary": "Monthly blocked-days usage",
                "parameters": [
                    {"name": "ministryId", "in": "query", "required": true, "type": "string"},
                    {"name": "month", "in": "query", "required": true, "type": "string"},
                    {"name": "volunteerId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/can-block": {
            "get": {
                "tags": ["Availability"],
                "summary": "Pre-flight a block request",
                "parameters": [
                    {"name": "ministryId", "in": "query", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "volunteerId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/check": {
            "get": {
                "tags": ["Availability"],
                "summary": "Check availability",
                "parameters": [
                    {"name": "ministryId", "in": "query", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "volunteerId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability": {
            "delete": {
                "tags": ["Availability"],
                "summary": "Deactivate availability record",
                "parameters": [
                    {"name": "ministryId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/scales/{id}": {
            "get": {
                "tags": ["Scales"],
                "summary": "Get a scale",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Scale not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scales/{id}/suggestions": {
            "get": {
                "tags": ["Scales"],
                "summary": "Generate assignment suggestions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Scale not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Ministry mismatch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scales/{id}/assignments": {
            "post": {
                "tags": ["Scales"],
                "summary": "Confirm assignments",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConfirmAssignmentsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scales/{id}/publish": {
            "post": {
                "tags": ["Scales"],
                "summary": "Publish a scale",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not a draft", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scales/{id}/complete": {
            "post": {
                "tags": ["Scales"],
                "summary": "Complete a scale",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Not published", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scales/{id}/cancel": {
            "post": {
                "tags": ["Scales"],
                "summary": "Cancel a scale",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Not published", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scales/{id}/swap-candidates": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "List swap candidates",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scales/{id}/substitutions": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "List swap requests for a scale",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions": {
            "post": {
                "tags": ["Substitutions"],
                "summary": "Create swap request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSwapRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/{id}": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "Get swap request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/{id}/respond": {
            "post": {
                "tags": ["Substitutions"],
                "summary": "Respond to swap request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RespondSwapRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the target", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Expired or target unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/{id}/cancel": {
            "post": {
                "tags": ["Substitutions"],
                "summary": "Cancel swap request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the requester", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/history": {
            "post": {
                "tags": ["History"],
                "summary": "Record a service outcome",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordServiceHistoryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate entry", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/volunteers/{id}/stats": {
            "get": {
                "tags": ["History"],
                "summary": "Volunteer service stats",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "BlockDateRequest": {
            "type": "object",
            "required": ["ministryId", "date"],
            "properties": {
                "ministryId": {"type": "string"},
                "date": {"type": "string", "example": "2026-09-14"},
                "reason": {"type": "string"}
            }
        },
        "UnblockDateRequest": {
            "type": "object",
            "required": ["ministryId", "date"],
            "properties": {
                "ministryId": {"type": "string"},
                "date": {"type": "string", "example": "2026-09-14"}
            }
        },
        "ConfirmAssignmentsRequest": {
            "type": "object",
            "required": ["picks"],
            "properties": {
                "picks": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "functionId": {"type": "string"},
                            "volunteerId": {"type": "string"}
                        }
                    }
                }
            }
        },
        "CreateSwapRequest": {
            "type": "object",
            "required": ["scaleId", "targetId"],
            "properties": {
                "scaleId": {"type": "string"},
                "targetId": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "RespondSwapRequest": {
            "type": "object",
            "required": ["decision"],
            "properties": {
                "decision": {"type": "string", "enum": ["accepted", "rejected"]},
                "rejectionReason": {"type": "string"}
            }
        },
        "RecordServiceHistoryRequest": {
            "type": "object",
            "required": ["volunteerId", "scaleId", "functionId", "ministryId", "serviceDate", "status"],
            "properties": {
                "volunteerId": {"type": "string"},
                "scaleId": {"type": "string"},
                "functionId": {"type": "string"},
                "ministryId": {"type": "string"},
                "serviceDate": {"type": "string", "example": "2026-09-14"},
                "status": {"type": "string", "enum": ["completed", "missed", "cancelled"]},
                "notes": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
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
