package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "EduSync API",
        "description": "School operations backend: attendance, schedules, leaves and the AI assistant",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh and password management"},
        {"name": "Users", "description": "Staff account management"},
        {"name": "Schedules", "description": "Weekly schedule grid"},
        {"name": "Attendance", "description": "Teacher daily check-in"},
        {"name": "Sessions", "description": "Class session tracking"},
        {"name": "Behavior", "description": "Student behavior reports"},
        {"name": "Leaves", "description": "Leave applications and balances"},
        {"name": "Announcements", "description": "Role-targeted announcements"},
        {"name": "Assistant", "description": "AI chat and schedule command plans"},
        {"name": "Dashboard", "description": "Per-role summary payloads"},
        {"name": "Exports", "description": "CSV and PDF reports"},
        {"name": "Flags", "description": "Runtime flags including maintenance mode"},
        {"name": "Diagnostics", "description": "Creator-only health probes"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
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
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
