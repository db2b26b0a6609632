package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Lab Reservation API",
        "description": "Booking calendar and topology mapping for optical lab equipment",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timeline", "description": "Weekly booking calendar"},
        {"name": "Devices", "description": "Physical inventory"},
        {"name": "Bookings", "description": "Reservation listings"},
        {"name": "Topology", "description": "Logical-to-physical topology mapping"},
        {"name": "Sessions", "description": "Per-session planning state"},
        {"name": "Exports", "description": "Downloadable reports"}
    ],
    "paths": {
        "/timeline": {
            "get": {
                "tags": ["Timeline"],
                "summary": "Weekly booking calendar",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "description": "Start date (YYYY-MM-DD)"},
                    {"name": "deviceType", "in": "query", "type": "string"},
                    {"name": "days", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/devices": {
            "get": {
                "tags": ["Devices"],
                "summary": "List devices",
                "parameters": [
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/devices/types": {
            "get": {
                "tags": ["Devices"],
                "summary": "List device types",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/devices/{id}": {
            "get": {
                "tags": ["Devices"],
                "summary": "Get device",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/bookings": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List bookings",
                "parameters": [
                    {"name": "deviceType", "in": "query", "type": "string"},
                    {"name": "deviceName", "in": "query", "type": "string"},
                    {"name": "userId", "in": "query", "type": "integer"},
                    {"name": "start", "in": "query", "type": "string"},
                    {"name": "end", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/topology/resolve": {
            "post": {
                "tags": ["Topology"],
                "summary": "Resolve a logical topology",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolveTopologyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No feasible mapping"}
                }
            }
        },
        "/topology/suggest": {
            "post": {
                "tags": ["Topology"],
                "summary": "Ranked topology suggestions",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SuggestTopologyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No feasible mapping"}
                }
            }
        },
        "/topology/override": {
            "post": {
                "tags": ["Topology"],
                "summary": "Override one node of a mapping",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OverrideRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/topologies": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List saved topologies",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sessions"],
                "summary": "Save a logical topology",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveTopologyRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/{id}/topologies/{name}": {
            "delete": {
                "tags": ["Sessions"],
                "summary": "Delete a saved topology",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "name", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/sessions/{id}/dismissed": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List dismissed booking ids",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Sessions"],
                "summary": "Dismiss a booking",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DismissBookingRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/sessions/{id}/overrides": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List the session override audit trail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/bookings.csv": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export bookings as CSV",
                "parameters": [
                    {"name": "start", "in": "query", "required": true, "type": "string"},
                    {"name": "end", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV payload"}
                }
            }
        },
        "/exports/mapping.pdf": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export a mapping report as PDF",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Mapping"}}
                ],
                "responses": {
                    "200": {"description": "PDF payload"}
                }
            }
        },
        "/exports/jobs": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a background export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportJobRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/jobs/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a rendered export artifact",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Artifact payload"}
                }
            }
        }
    },
    "definitions": {
        "LogicalNode": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "device_type": {"type": "string"},
                "parameters": {"type": "object"}
            },
            "required": ["id", "device_type"]
        },
        "LogicalEdge": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "source": {"type": "string"},
                "target": {"type": "string"},
                "parameters": {"type": "object"}
            },
            "required": ["source", "target"]
        },
        "ResolveTopologyRequest": {
            "type": "object",
            "properties": {
                "nodes": {"type": "array", "items": {"$ref": "#/definitions/LogicalNode"}},
                "edges": {"type": "array", "items": {"$ref": "#/definitions/LogicalEdge"}},
                "window_start": {"type": "string"},
                "window_end": {"type": "string"}
            },
            "required": ["nodes", "window_start", "window_end"]
        },
        "SuggestTopologyRequest": {
            "type": "object",
            "properties": {
                "nodes": {"type": "array", "items": {"$ref": "#/definitions/LogicalNode"}},
                "edges": {"type": "array", "items": {"$ref": "#/definitions/LogicalEdge"}},
                "window_start": {"type": "string"},
                "window_end": {"type": "string"},
                "annotate": {"type": "boolean"}
            },
            "required": ["nodes", "window_start", "window_end"]
        },
        "Candidate": {
            "type": "object",
            "properties": {
                "device_id": {"type": "integer"},
                "device_name": {"type": "string"},
                "device_type": {"type": "string"},
                "fit_score": {"type": "number"},
                "available": {"type": "boolean"},
                "explanation": {"type": "string"}
            }
        },
        "Mapping": {
            "type": "object",
            "properties": {
                "mapping_id": {"type": "string"},
                "total_fit_score": {"type": "number"},
                "node_mappings": {"type": "array", "items": {"type": "object"}},
                "link_mappings": {"type": "array", "items": {"type": "object"}},
                "notes": {"type": "string"}
            }
        },
        "OverrideRequest": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "mapping": {"$ref": "#/definitions/Mapping"},
                "logical_node_id": {"type": "string"},
                "candidate": {"$ref": "#/definitions/Candidate"}
            },
            "required": ["session_id", "mapping", "logical_node_id", "candidate"]
        },
        "SaveTopologyRequest": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "name": {"type": "string"},
                "topology": {"type": "object"}
            },
            "required": ["name", "topology"]
        },
        "DismissBookingRequest": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "booking_id": {"type": "integer"}
            },
            "required": ["booking_id"]
        },
        "ExportJobRequest": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["bookings-csv", "mapping-pdf"]},
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"},
                "mapping": {"$ref": "#/definitions/Mapping"}
            },
            "required": ["kind"]
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
