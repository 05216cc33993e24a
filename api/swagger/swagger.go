package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "NSS Portal API",
        "description": "Volunteering hours and event portal for the National Service Scheme unit",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Authentication", "description": "Accounts and sessions"},
        {"name": "Events", "description": "NSS event management"},
        {"name": "Participations", "description": "Registration, reports and review"},
        {"name": "Users", "description": "Volunteer roster"},
        {"name": "Certificates", "description": "Participation and year completion certificates"},
        {"name": "Reports", "description": "PDF and CSV exports"},
        {"name": "Dashboard", "description": "Aggregate statistics"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register volunteer account",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid refresh token"}
                }
            }
        },
        "/events": {
            "get": {
                "tags": ["Events"],
                "summary": "List events",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Events"],
                "summary": "Create event",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/events/{id}": {
            "get": {
                "tags": ["Events"],
                "summary": "Get event details",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Events"],
                "summary": "Update event",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Events"],
                "summary": "Delete event",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/events/{id}/announce": {
            "post": {
                "tags": ["Events"],
                "summary": "Announce event to registered students",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/participations/register/{eventId}": {
            "post": {
                "tags": ["Participations"],
                "summary": "Register for an upcoming event",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Already registered"},
                    "412": {"description": "Registration closed or event full"}
                }
            }
        },
        "/participations/cancel/{eventId}": {
            "delete": {
                "tags": ["Participations"],
                "summary": "Cancel a pending registration",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Cancelled"},
                    "412": {"description": "Registration can no longer be cancelled"}
                }
            }
        },
        "/participations/{id}/report": {
            "put": {
                "tags": ["Participations"],
                "summary": "Submit an activity report",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "412": {"description": "Event not over or report already reviewed"}
                }
            }
        },
        "/participations/{id}/review": {
            "put": {
                "tags": ["Participations"],
                "summary": "Review a submitted report",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "412": {"description": "Event has not ended yet"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Users"],
                "summary": "List student volunteers",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get a student profile",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/certificates/participation/{id}": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Download participation certificate",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF"},
                    "412": {"description": "Participation not approved"}
                }
            }
        },
        "/certificates/year-completion/{studentId}": {
            "get": {
                "tags": ["Certificates"],
                "summary": "Download year completion certificate",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF"},
                    "412": {"description": "Student not eligible"}
                }
            }
        },
        "/reports/annual-summary": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download the yearly activity summary CSV",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "responses": {"200": {"description": "CSV"}}
            }
        },
        "/dashboard/stats": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Portal dashboard statistics",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_items": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
