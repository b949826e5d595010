// Package swagger registers the OpenAPI document served at /swagger/*.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "PixelPanic Engineering"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/auth/me": {
            "get": {"tags": ["auth"], "summary": "Resolve the current session", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Not authenticated"}}}
        },
        "/api/auth/send-otp": {
            "post": {"tags": ["auth"], "summary": "Send a login OTP", "consumes": ["application/json"], "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid phone number"}}}
        },
        "/api/auth/verify-otp": {
            "post": {"tags": ["auth"], "summary": "Verify a login OTP and start a session", "consumes": ["application/json"], "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid code"}}}
        },
        "/api/auth/logout": {
            "post": {"tags": ["auth"], "summary": "End the current session", "responses": {"200": {"description": "OK"}}}
        },
        "/api/checkout/apply-coupon": {
            "post": {"tags": ["checkout"], "summary": "Validate a coupon code", "consumes": ["application/json"], "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Coupon not applicable"}}}
        },
        "/api/checkout/create-order": {
            "post": {"tags": ["checkout"], "summary": "Create an order from the cart", "consumes": ["application/json"], "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Validation failed"}, "401": {"description": "Not authenticated"}}}
        },
        "/api/orders/{id}": {
            "get": {"tags": ["checkout"], "summary": "Fetch an order for confirmation", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
        },
        "/api/technicians/invites/{token}": {
            "get": {"tags": ["technicians"], "summary": "Look up an invite", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "token", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Invalid or expired"}}}
        },
        "/api/technicians/invites/{token}/complete": {
            "post": {"tags": ["technicians"], "summary": "Accept an invite", "consumes": ["application/json"], "produces": ["text/plain"],
                "parameters": [{"type": "string", "name": "token", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Phone mismatch"}, "410": {"description": "Invite no longer valid"}}}
        },
        "/api/technicians/me/gigs": {
            "get": {"tags": ["technicians"], "summary": "List my gigs", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "status", "in": "query"}],
                "responses": {"200": {"description": "OK"}}}
        },
        "/api/technicians/gigs/{id}/status": {
            "post": {"tags": ["technicians"], "summary": "Change gig status", "consumes": ["application/json"], "produces": ["text/plain"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid transition"}}}
        },
        "/api/technicians/gigs/{id}/resend-code": {
            "post": {"tags": ["technicians"], "summary": "Send a fresh completion code to the customer", "produces": ["text/plain"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Gig not in progress"}}}
        },
        "/api/technicians/gigs/{id}/complete": {
            "post": {"tags": ["technicians"], "summary": "Complete a gig with the customer OTP", "consumes": ["application/json"], "produces": ["text/plain"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid OTP"}}}
        },
        "/api/technicians/upload": {
            "post": {"tags": ["technicians"], "summary": "Upload a job photo", "consumes": ["multipart/form-data"], "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid file"}}}
        },
        "/admin/technician-invites": {
            "get": {"tags": ["admin"], "summary": "List technician invites", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["admin"], "summary": "Create a technician invite", "consumes": ["application/json"], "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "422": {"description": "Validation failed"}}}
        },
        "/admin/technician-invites/{id}/revoke": {
            "post": {"tags": ["admin"], "summary": "Revoke a technician invite",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Already used"}}}
        },
        "/admin/orders": {
            "get": {"tags": ["admin"], "summary": "List orders", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/orders/{id}/assign": {
            "post": {"tags": ["admin"], "summary": "Assign a technician", "consumes": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid state"}}}
        },
        "/admin/orders/{id}/cancel": {
            "post": {"tags": ["admin"], "summary": "Cancel an order",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid transition"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "PixelPanic API",
	Description:      "Doorstep phone repair marketplace: auth, checkout, technician and admin endpoints.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
