// Package docs registers the OpenAPI document served under /swagger. The
// template follows the layout swag emits and is maintained by hand alongside
// the route table.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/health/ready": {
            "get": {
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/v1/auth/signup": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new account",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/v1/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"},
                    "429": {"description": "Too Many Requests"}
                }
            }
        },
        "/v1/auth/forgot-password": {
            "post": {
                "tags": ["auth"],
                "summary": "Request a password reset token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"},
                    "429": {"description": "Too Many Requests"}
                }
            }
        },
        "/v1/auth/reset-password/{token}": {
            "patch": {
                "tags": ["auth"],
                "summary": "Reset password with a one-time token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "token", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/v1/auth/update-password": {
            "patch": {
                "tags": ["auth"],
                "summary": "Change own password",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/v1/users/me": {
            "get": {
                "tags": ["users"],
                "summary": "Get own profile",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            },
            "patch": {
                "tags": ["users"],
                "summary": "Update own profile",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"}
                }
            },
            "delete": {
                "tags": ["users"],
                "summary": "Deactivate own account",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/v1/users": {
            "get": {
                "tags": ["users"],
                "summary": "List users (admin)",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden"}
                }
            }
        },
        "/v1/users/{id}": {
            "get": {
                "tags": ["users"],
                "summary": "Get a user (admin)",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            },
            "patch": {
                "tags": ["users"],
                "summary": "Update a user (admin)",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            },
            "delete": {
                "tags": ["users"],
                "summary": "Delete a user (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/tours": {
            "get": {
                "tags": ["tours"],
                "summary": "List tours",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "sort", "in": "query"},
                    {"type": "string", "name": "fields", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"}
                }
            },
            "post": {
                "tags": ["tours"],
                "summary": "Create a tour",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/v1/tours/top-5-cheap": {
            "get": {
                "tags": ["tours"],
                "summary": "Top 5 cheap tours",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/tours/stats": {
            "get": {
                "tags": ["tours"],
                "summary": "Tour statistics grouped by difficulty",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/tours/monthly-plan/{year}": {
            "get": {
                "tags": ["tours"],
                "summary": "Monthly starting plan for a year",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "name": "year", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/v1/tours/{id}": {
            "get": {
                "tags": ["tours"],
                "summary": "Get a tour",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            },
            "patch": {
                "tags": ["tours"],
                "summary": "Update a tour",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            },
            "delete": {
                "tags": ["tours"],
                "summary": "Delete a tour",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/tours/{tourId}/reviews": {
            "get": {
                "tags": ["reviews"],
                "summary": "List reviews of a tour",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "tourId", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["reviews"],
                "summary": "Create a review",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "tourId", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/v1/reviews": {
            "get": {
                "tags": ["reviews"],
                "summary": "List reviews",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["reviews"],
                "summary": "Create a review",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/v1/reviews/{id}": {
            "get": {
                "tags": ["reviews"],
                "summary": "Get a review",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            },
            "patch": {
                "tags": ["reviews"],
                "summary": "Update a review",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            },
            "delete": {
                "tags": ["reviews"],
                "summary": "Delete a review",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/v1/admin/recompute-ratings": {
            "post": {
                "tags": ["admin"],
                "summary": "Recompute all rating summaries",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {
                    "202": {"description": "Accepted"},
                    "403": {"description": "Forbidden"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Tours API",
	Description:      "Tour, review and account management API with denormalized rating summaries.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
