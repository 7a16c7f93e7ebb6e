// Package docs registers the OpenAPI document served at /swagger.
// Run `swag init -g cmd/server/main.go -o docs --v3.1` to regenerate the
// paths from the handler annotations.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.1.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "servers": [
        {"url": "//{{.Host}}{{.BasePath}}"}
    ],
    "tags": [
        {"name": "inventory", "description": "Raw materials and the stock movement ledger"},
        {"name": "sales", "description": "Recipe-driven stock deduction for POS sales"},
        {"name": "products", "description": "Sellable products and their recipes"},
        {"name": "categories", "description": "Product categories"},
        {"name": "import", "description": "Stock reconciliation from CSV and XLSX files"},
        {"name": "system", "description": "Health and build information"}
    ],
    "paths": {}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "CineMan Inventory API",
	Description:      "Inventory consumption engine for cinema concession stands",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
