package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Timetable API",
        "description": "Weekly timetable generation and manual cell editing",
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
        {"name": "Timetable", "description": "Period grids, generation and cell edits"},
        {"name": "Ops", "description": "Liveness, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Ops"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Ops"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A backing store is unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Ops"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/timetables/modes": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List timetable modes",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/teacher-choices": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Suggest teachers for a subject in a class",
                "description": "Falls back to every active teacher when nobody is assigned.",
                "parameters": [
                    {"name": "subjectId", "in": "query", "required": true, "type": "string"},
                    {"name": "classId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TeacherChoicesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/{mode}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get the stored timetable of a mode",
                "parameters": [
                    {"$ref": "#/parameters/Mode"},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "streamId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Slot"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/{mode}/periods": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get the period grid of a mode",
                "parameters": [
                    {"$ref": "#/parameters/Mode"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PeriodGridResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/{mode}/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Regenerate the whole timetable of a mode",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/Mode"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GenerateTimetableResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/timetables/{mode}/cells": {
            "put": {
                "tags": ["Timetable"],
                "summary": "Set one timetable cell",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/Mode"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetCellRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SetCellResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Timetable"],
                "summary": "Clear one timetable cell",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/Mode"},
                    {"name": "classId", "in": "query", "required": true, "type": "string"},
                    {"name": "streamId", "in": "query", "required": true, "type": "string"},
                    {"name": "day", "in": "query", "required": true, "type": "integer", "minimum": 1, "maximum": 5},
                    {"name": "periodIndex", "in": "query", "required": true, "type": "integer", "minimum": 0}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "Mode": {
            "name": "mode",
            "in": "path",
            "required": true,
            "type": "string",
            "enum": ["upper_primary", "junior", "ecde"]
        }
    },
    "definitions": {
        "Slot": {
            "type": "object",
            "properties": {
                "mode": {"type": "string"},
                "classId": {"type": "string"},
                "className": {"type": "string"},
                "streamId": {"type": "string"},
                "streamName": {"type": "string"},
                "day": {"type": "integer"},
                "periodIndex": {"type": "integer"},
                "timeStart": {"type": "string"},
                "timeEnd": {"type": "string"},
                "subjectId": {"type": "string"},
                "subjectName": {"type": "string"},
                "teacherId": {"type": "string"},
                "teacherName": {"type": "string"},
                "teacherCode": {"type": "string"},
                "isLocked": {"type": "boolean"},
                "label": {"type": "string"},
                "forced": {"type": "boolean"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "PeriodDefinition": {
            "type": "object",
            "properties": {
                "start": {"type": "string"},
                "end": {"type": "string"},
                "locked": {"type": "boolean"},
                "label": {"type": "string"}
            }
        },
        "PeriodGridResponse": {
            "type": "object",
            "properties": {
                "mode": {"type": "string"},
                "periods": {"type": "array", "items": {"$ref": "#/definitions/PeriodDefinition"}},
                "openPerDay": {"type": "integer"},
                "openPerWeek": {"type": "integer"}
            }
        },
        "ForcedPlacement": {
            "type": "object",
            "properties": {
                "slot": {"type": "object"},
                "subjectId": {"type": "string"},
                "teacherId": {"type": "string"},
                "reasons": {"type": "array", "items": {"type": "string", "enum": ["TEACHER_DOUBLE_BOOKED", "SUBJECT_DAY_CAP"]}}
            }
        },
        "StreamGenerationSummary": {
            "type": "object",
            "properties": {
                "classId": {"type": "string"},
                "className": {"type": "string"},
                "streamId": {"type": "string"},
                "streamName": {"type": "string"},
                "bindings": {"type": "integer"},
                "openSlots": {"type": "integer"},
                "filledSlots": {"type": "integer"},
                "lockedSlots": {"type": "integer"},
                "forcedSlots": {"type": "integer"},
                "emptyDemand": {"type": "boolean"},
                "unfilledSlots": {"type": "integer"}
            }
        },
        "GenerateTimetableResponse": {
            "type": "object",
            "properties": {
                "mode": {"type": "string"},
                "slotCount": {"type": "integer"},
                "discardedSlots": {"type": "integer"},
                "streams": {"type": "array", "items": {"$ref": "#/definitions/StreamGenerationSummary"}},
                "forcedPlacements": {"type": "array", "items": {"$ref": "#/definitions/ForcedPlacement"}},
                "emptyDemand": {"type": "array", "items": {"type": "object"}},
                "degraded": {"type": "boolean"}
            }
        },
        "SetCellRequest": {
            "type": "object",
            "required": ["classId", "streamId", "day", "subjectId", "teacherId"],
            "properties": {
                "classId": {"type": "string"},
                "streamId": {"type": "string"},
                "day": {"type": "integer", "minimum": 1, "maximum": 5},
                "periodIndex": {"type": "integer", "minimum": 0},
                "subjectId": {"type": "string"},
                "teacherId": {"type": "string"}
            }
        },
        "CellWarning": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "enum": ["TEACHER_CONFLICT", "TEACHER_NOT_ASSIGNED", "SUBJECT_DAY_CAP"]},
                "message": {"type": "string"},
                "meta": {"type": "object"}
            }
        },
        "SetCellResponse": {
            "type": "object",
            "properties": {
                "slot": {"$ref": "#/definitions/Slot"},
                "warnings": {"type": "array", "items": {"$ref": "#/definitions/CellWarning"}}
            }
        },
        "Teacher": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "fullName": {"type": "string"},
                "code": {"type": "string"},
                "active": {"type": "boolean"}
            }
        },
        "TeacherChoicesResponse": {
            "type": "object",
            "properties": {
                "teachers": {"type": "array", "items": {"$ref": "#/definitions/Teacher"}},
                "fallback": {"type": "boolean"}
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
