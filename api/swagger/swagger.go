package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Event Pass API",
        "description": "Roster management, QR pass issuance and single-use pass verification for the farewell event.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Students", "description": "Event roster management"},
        {"name": "Passes", "description": "QR pass issuance"},
        {"name": "Scanner", "description": "Entry gate pass verification"}
    ],
    "paths": {
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string", "description": "Search by name, email or roll number"},
                    {"name": "issued", "in": "query", "type": "boolean", "description": "Filter by pass issuance state"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["name", "roll_number", "created_at"]},
                    {"name": "order", "in": "query", "type": "string", "enum": ["asc", "desc"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register a student manually",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Identity already registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/classify": {
            "post": {
                "tags": ["Students"],
                "summary": "Classify an upload batch against the directory",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "Unique rows and duplicates", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/generate-passes": {
            "post": {
                "tags": ["Passes"],
                "summary": "Generate and email passes for a batch of students",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-item results", "schema": {"$ref": "#/definitions/GenerateResponse"}},
                    "400": {"description": "Empty or malformed batch"}
                }
            }
        },
        "/students/export": {
            "get": {
                "tags": ["Students"],
                "summary": "Export the roster",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "required": true, "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "400": {"description": "Unknown format"}
                }
            }
        },
        "/scanner/verify": {
            "post": {
                "tags": ["Scanner"],
                "summary": "Verify a scanned pass",
                "description": "Consumes the pass on first scan; repeat scans are rejected with the original verification timestamp.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VerifyRequest"}}
                ],
                "responses": {
                    "200": {"description": "Pass accepted", "schema": {"$ref": "#/definitions/VerifyResponse"}},
                    "400": {"description": "Invalid or already used pass", "schema": {"$ref": "#/definitions/VerifyResponse"}},
                    "429": {"description": "Rate limited"},
                    "500": {"description": "Verification failed", "schema": {"$ref": "#/definitions/VerifyResponse"}}
                }
            }
        }
    },
    "definitions": {
        "CreateStudentRequest": {
            "type": "object",
            "required": ["name", "email", "roll_number"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "roll_number": {"type": "string"},
                "class_section": {"type": "string"}
            }
        },
        "CandidateStudent": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "roll_number": {"type": "string"},
                "class_section": {"type": "string"}
            }
        },
        "BatchRequest": {
            "type": "object",
            "properties": {
                "students": {"type": "array", "items": {"$ref": "#/definitions/CandidateStudent"}}
            }
        },
        "VerifyRequest": {
            "type": "object",
            "required": ["passId", "studentId"],
            "properties": {
                "passId": {"type": "string"},
                "studentId": {"type": "string"}
            }
        },
        "VerifyResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "student": {"type": "object"},
                "verification": {"type": "object"}
            }
        },
        "GenerateResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "summary": {
                    "type": "object",
                    "properties": {
                        "total": {"type": "integer"},
                        "successful": {"type": "integer"},
                        "failed": {"type": "integer"}
                    }
                },
                "results": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "email": {"type": "string"},
                            "status": {"type": "string", "enum": ["success", "skipped", "failed"]},
                            "message": {"type": "string"}
                        }
                    }
                }
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
                "pagination": {"$ref": "#/definitions/Pagination"}
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
