package router

import (
	"fmt"
	"net/http"
)

func registerSwaggerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/", http.StatusMovedPermanently)
	})

	mux.HandleFunc("/swagger/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, swaggerHTML, "/swagger/openapi.json")
	})

	mux.HandleFunc("/swagger/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(openAPI))
	})
}

const swaggerHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Funds Transfer Service API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      window.ui = SwaggerUIBundle({
        url: "%s",
        dom_id: "#swagger-ui"
      });
    };
  </script>
</body>
</html>`

const openAPI = `{
  "openapi": "3.0.3",
  "info": {
    "title": "Funds Transfer Service API",
    "version": "1.0.0"
  },
  "paths": {
    "/transfer": {
      "post": {
        "summary": "Move funds from a payer to a payee",
        "security": [
          {
            "BasicAuth": []
          }
        ],
        "parameters": [
          {
            "name": "Idempotency-Key",
            "in": "header",
            "required": false,
            "schema": {"type": "string", "maxLength": 255}
          }
        ],
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["value", "payer", "payee"],
                "properties": {
                  "value": {"type": "number", "example": 100.0},
                  "payer": {"type": "string", "example": "6f1c2a52-5d7e-4c1b-9a43-0c7f3f0a1001"},
                  "payee": {"type": "string", "example": "6f1c2a52-5d7e-4c1b-9a43-0c7f3f0a1002"}
                }
              }
            }
          }
        },
        "responses": {
          "201": {"description": "Transfer committed"},
          "200": {"description": "Replayed response for a known Idempotency-Key"},
          "400": {"description": "Validation error or insufficient balance"},
          "401": {"description": "Unauthorized"},
          "403": {"description": "Payer may not send or transfer not authorized"},
          "404": {"description": "Account not found"},
          "409": {"description": "Request with the same Idempotency-Key in progress"},
          "422": {"description": "Idempotency-Key already used with a different request"},
          "429": {"description": "Rate limited"},
          "500": {"description": "Server error"},
          "503": {"description": "Authorization service unavailable"}
        }
      }
    },
    "/accounts/{id}": {
      "get": {
        "summary": "Get account by id",
        "security": [
          {
            "BasicAuth": []
          }
        ],
        "parameters": [
          {
            "name": "id",
            "in": "path",
            "required": true,
            "schema": {"type": "string"}
          }
        ],
        "responses": {
          "200": {"description": "Account fetched"},
          "401": {"description": "Unauthorized"},
          "404": {"description": "Account not found"},
          "500": {"description": "Server error"}
        }
      }
    },
    "/health": {
      "get": {
        "summary": "Service and dependency health",
        "responses": {
          "200": {"description": "Healthy"},
          "503": {"description": "A dependency is down"}
        }
      }
    }
  },
  "components": {
    "securitySchemes": {
      "BasicAuth": {
        "type": "http",
        "scheme": "basic"
      }
    }
  }
}`
