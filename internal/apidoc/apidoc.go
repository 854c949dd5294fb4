// Package apidoc carries the OpenAPI description of the HTTP surface.
package apidoc

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/m1z23r/drift/pkg/drift"
)

//go:embed openapi.yaml
var source []byte

// Load parses and validates the embedded document.
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse api description: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid api description: %w", err)
	}
	return doc, nil
}

// MustLoad is Load for process start, where a broken embedded document is a build defect.
func MustLoad() *openapi3.T {
	doc, err := Load(context.Background())
	if err != nil {
		panic(err)
	}
	return doc
}

// Handler serves doc as JSON.
func Handler(doc *openapi3.T) drift.HandlerFunc {
	return func(c *drift.Context) {
		_ = c.JSON(200, doc)
	}
}
