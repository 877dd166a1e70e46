package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Consultancy CRM API",
        "description": "Follow-ups, approval routing and ownership transfer for education consultancies",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "FollowUps", "description": "Follow-up lifecycle and comment threads"},
        {"name": "Approvals", "description": "Deferred delete and update requests"},
        {"name": "Entities", "description": "Role-routed delete and update of CRM records"},
        {"name": "Transfers", "description": "Student ownership transfer"},
        {"name": "Notifications", "description": "In-app notifications"}
    ],
    "paths": {
        "/health": {
            "get": {"summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {"summary": "Readiness check", "responses": {"200": {"description": "Ready"}, "503": {"description": "Database unreachable"}}}
        },
        "/metrics": {
            "get": {"summary": "Prometheus metrics", "produces": ["text/plain"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/follow-ups": {
            "get": {
                "tags": ["FollowUps"], "summary": "List follow-ups", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "enquiry_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated: Pending, Completed, Missed"},
                    {"name": "assigned_to", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["FollowUps"], "summary": "Schedule a follow-up", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateFollowUpRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Validation error"}}
            }
        },
        "/api/v1/follow-ups/{id}": {
            "get": {
                "tags": ["FollowUps"], "summary": "Follow-up with its comment tree", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found"}}
            }
        },
        "/api/v1/follow-ups/{id}/reschedule": {
            "patch": {
                "tags": ["FollowUps"], "summary": "Reschedule a follow-up", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RescheduleFollowUpRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Follow-up already completed"}}
            }
        },
        "/api/v1/follow-ups/{id}/complete": {
            "post": {
                "tags": ["FollowUps"], "summary": "Complete a follow-up", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/CompleteFollowUpRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "409": {"description": "Already completed"}}
            }
        },
        "/api/v1/follow-ups/{id}/comments": {
            "post": {
                "tags": ["FollowUps"], "summary": "Add a comment or reply", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddCommentRequest"}}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/v1/follow-up-comments/{commentId}": {
            "delete": {
                "tags": ["FollowUps"], "summary": "Delete a comment", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "commentId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}
            }
        },
        "/api/v1/entities/{type}/{id}": {
            "delete": {
                "tags": ["Entities"], "summary": "Delete a record or request approval", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "type", "in": "path", "required": true, "type": "string", "enum": ["enquiry", "registration", "enrollment"]},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/GatedMutationRequest"}}
                ],
                "responses": {"200": {"description": "Applied"}, "202": {"description": "Request sent for approval"}, "422": {"description": "Submission rejected"}}
            },
            "patch": {
                "tags": ["Entities"], "summary": "Update a record or request approval", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "type", "in": "path", "required": true, "type": "string", "enum": ["enquiry", "registration", "enrollment"]},
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GatedMutationRequest"}}
                ],
                "responses": {"200": {"description": "Applied"}, "202": {"description": "Request sent for approval"}, "422": {"description": "Submission rejected"}}
            }
        },
        "/api/v1/approval-requests": {
            "get": {
                "tags": ["Approvals"], "summary": "List approval requests", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "description": "Comma separated: PENDING, APPROVED, REJECTED"},
                    {"name": "entity_type", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Approvals"], "summary": "Submit an approval request", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateApprovalRequest"}}],
                "responses": {"201": {"description": "Created"}, "422": {"description": "Submission rejected"}}
            }
        },
        "/api/v1/approval-requests/pending-count": {
            "get": {"tags": ["Approvals"], "summary": "Count pending requests", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/approval-requests/{id}": {
            "get": {
                "tags": ["Approvals"], "summary": "Get an approval request", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/api/v1/approval-requests/{id}/approve": {
            "post": {
                "tags": ["Approvals"], "summary": "Approve and apply a request", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ReviewApprovalRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Admins only"}, "409": {"description": "Already resolved"}}
            }
        },
        "/api/v1/approval-requests/{id}/reject": {
            "post": {
                "tags": ["Approvals"], "summary": "Reject a request", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewApprovalRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Review note required"}, "409": {"description": "Already resolved"}}
            }
        },
        "/api/v1/students/mine": {
            "get": {"tags": ["Transfers"], "summary": "Enquiries and registrations owned by the caller", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/transfers": {
            "post": {
                "tags": ["Transfers"], "summary": "Transfer ownership of students", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransferRequest"}}],
                "responses": {"200": {"description": "All items transferred"}, "400": {"description": "Validation error"}, "422": {"description": "Some items failed"}}
            }
        },
        "/api/v1/notifications": {
            "get": {"tags": ["Notifications"], "summary": "List notifications for the caller", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/metrics/summary": {
            "get": {"summary": "Metrics snapshot", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "CreateFollowUpRequest": {
            "type": "object",
            "required": ["enquiry_id", "type", "scheduled_for"],
            "properties": {
                "enquiry_id": {"type": "string"},
                "type": {"type": "string", "enum": ["Call", "Email", "SMS", "WhatsApp"]},
                "scheduled_for": {"type": "string", "format": "date-time"},
                "priority": {"type": "string", "enum": ["High", "Medium", "Low"]},
                "notes": {"type": "string"},
                "assigned_to_id": {"type": "string"}
            }
        },
        "RescheduleFollowUpRequest": {
            "type": "object",
            "required": ["scheduled_for"],
            "properties": {"scheduled_for": {"type": "string", "format": "date-time"}}
        },
        "CompleteFollowUpRequest": {
            "type": "object",
            "properties": {
                "comment": {"type": "string"},
                "outcome_status": {"type": "string"},
                "admission_possibility": {"type": "integer", "minimum": 0, "maximum": 100}
            }
        },
        "AddCommentRequest": {
            "type": "object",
            "required": ["comment"],
            "properties": {
                "comment": {"type": "string"},
                "parent_comment": {"type": "string"}
            }
        },
        "GatedMutationRequest": {
            "type": "object",
            "properties": {
                "entity_name": {"type": "string"},
                "message": {"type": "string"},
                "changes": {"type": "object"}
            }
        },
        "CreateApprovalRequest": {
            "type": "object",
            "required": ["action", "entity_type", "entity_id", "entity_name"],
            "properties": {
                "action": {"type": "string", "enum": ["DELETE", "UPDATE"]},
                "entity_type": {"type": "string"},
                "entity_id": {"type": "string"},
                "entity_name": {"type": "string"},
                "message": {"type": "string"},
                "pending_changes": {"type": "object"}
            }
        },
        "ReviewApprovalRequest": {
            "type": "object",
            "properties": {"review_note": {"type": "string"}}
        },
        "TransferItem": {
            "type": "object",
            "required": ["type", "id", "original_record"],
            "properties": {
                "type": {"type": "string", "enum": ["enquiry", "registration"]},
                "id": {"type": "string"},
                "original_record": {"type": "object"}
            }
        },
        "TransferRequest": {
            "type": "object",
            "required": ["items", "to_user_id"],
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/TransferItem"}},
                "to_user_id": {"type": "string"},
                "note": {"type": "string"}
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
