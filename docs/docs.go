// Package docs holds the OpenAPI description served at /swagger. Regenerate
// with `swag init -g cmd/main.go` after changing handler annotations.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness check",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthStatus"}}}
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthStatus"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.HealthStatus"}}
                }
            }
        },
        "/public/config": {
            "get": {
                "produces": ["application/json"],
                "tags": ["onboarding"],
                "summary": "Public billing configuration",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.PublicConfig"}}}
            }
        },
        "/onboarding/plans": {
            "get": {
                "produces": ["application/json"],
                "tags": ["onboarding"],
                "summary": "List active plans",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.SubscriptionPlan"}}}}
            }
        },
        "/onboarding/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["onboarding"],
                "summary": "Start agency signup",
                "parameters": [{"description": "Signup details", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.CheckoutRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SignupResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/onboarding/checkout-status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["onboarding"],
                "summary": "Checkout status",
                "parameters": [{"type": "string", "description": "Checkout session id", "name": "session_id", "in": "query", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.CheckoutStatus"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/onboarding/webhook/stripe": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["onboarding"],
                "summary": "Billing provider webhook",
                "parameters": [{"type": "string", "description": "t=<unix>,v1=<hex hmac>", "name": "Stripe-Signature", "in": "header", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.WebhookResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/v1/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [{"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TokenResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/v1/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MeResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/v1/agency/subscription": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["subscription"],
                "summary": "Agency subscription",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.AgencySubscription"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/v1/admin/tenants/{agencyId}/provision": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tenants"],
                "summary": "Provision tenant database",
                "parameters": [{"type": "string", "description": "Agency ID", "name": "agencyId", "in": "path", "required": true}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.ProvisionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "common.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "details": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "handlers.HealthStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "string"},
                "services": {"type": "object", "additionalProperties": {"type": "string"}},
                "uptime": {"type": "string"},
                "version": {"type": "string"},
                "goroutines": {"type": "integer"}
            }
        },
        "handlers.PublicConfig": {
            "type": "object",
            "properties": {
                "billingProvider": {"type": "string"},
                "trialDays": {"type": "integer"},
                "isMock": {"type": "boolean"}
            }
        },
        "handlers.SignupResponse": {
            "type": "object",
            "properties": {"url": {"type": "string"}}
        },
        "handlers.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "handlers.MeResponse": {
            "type": "object",
            "properties": {"user": {"$ref": "#/definitions/models.User"}}
        },
        "handlers.ProvisionResponse": {
            "type": "object",
            "properties": {"agency_id": {"type": "string"}, "database_name": {"type": "string"}}
        },
        "models.SubscriptionPlan": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "code": {"type": "string"},
                "name": {"type": "string"},
                "max_users": {"type": "integer"},
                "max_requests_per_month": {"type": "integer"},
                "active": {"type": "boolean"}
            }
        },
        "models.Subscription": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "agency_id": {"type": "string"},
                "plan_id": {"type": "string"},
                "status": {"type": "string"},
                "current_period_start": {"type": "string"},
                "current_period_end": {"type": "string"}
            }
        },
        "models.Access": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "active": {"type": "boolean"},
                "can_login": {"type": "boolean"},
                "can_read": {"type": "boolean"},
                "can_write": {"type": "boolean"},
                "premium": {"type": "boolean"},
                "blocked": {"type": "boolean"},
                "blocked_reason": {"type": "string"}
            }
        },
        "models.TokenResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_in": {"type": "integer"},
                "user_id": {"type": "string"},
                "agency_id": {"type": "string"},
                "role": {"type": "string"},
                "issued_at": {"type": "string"}
            }
        },
        "models.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "agency_id": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string"},
                "active": {"type": "boolean"}
            }
        },
        "services.CheckoutRequest": {
            "type": "object",
            "required": ["plan_id", "agency_name", "admin_email", "admin_password"],
            "properties": {
                "plan_id": {"type": "string"},
                "agency_name": {"type": "string", "minLength": 2, "maxLength": 120},
                "admin_email": {"type": "string", "maxLength": 254},
                "admin_password": {"type": "string", "minLength": 8, "maxLength": 72}
            }
        },
        "services.CheckoutStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "plan_name": {"type": "string"},
                "expires_at": {"type": "string"},
                "current_period_end": {"type": "string"},
                "active": {"type": "boolean"}
            }
        },
        "services.AgencySubscription": {
            "type": "object",
            "properties": {
                "subscription": {"$ref": "#/definitions/models.Subscription"},
                "plan": {"$ref": "#/definitions/models.SubscriptionPlan"},
                "access": {"$ref": "#/definitions/models.Access"}
            }
        },
        "services.WebhookResult": {
            "type": "object",
            "properties": {
                "event_id": {"type": "string"},
                "event_type": {"type": "string"},
                "outcome": {"type": "string", "enum": ["processed", "duplicate", "ignored"]}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Reviso API",
	Description:      "Agency signup, billing lifecycle and tenant provisioning.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
