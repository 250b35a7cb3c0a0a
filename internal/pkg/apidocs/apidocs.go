// Package apidocs loads the OpenAPI document served by the swagger UI and checks
// it against the routes the application actually registers.
package apidocs

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

// Load reads and validates an OpenAPI 3 document.
func Load(ctx context.Context, path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document %s: %w", path, err)
	}
	return doc, nil
}

// Parse is Load for an in-memory document.
func Parse(ctx context.Context, data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}
	return doc, nil
}

var fiberParam = regexp.MustCompile(`:([A-Za-z0-9_]+)`)

// OpenAPIPath converts a Fiber route pattern like /sprites/:id into /sprites/{id}.
func OpenAPIPath(route string) string {
	return fiberParam.ReplaceAllString(route, "{$1}")
}

// Undocumented lists "METHOD path" for every route below prefix that has no
// operation in doc. Paths in the document are relative to prefix.
func Undocumented(doc *openapi3.T, routes []fiber.Route, prefix string) []string {
	seen := map[string]bool{}
	var missing []string
	for _, r := range routes {
		if r.Method == fiber.MethodHead || !strings.HasPrefix(r.Path, prefix) {
			continue
		}
		path := OpenAPIPath(strings.TrimPrefix(r.Path, prefix))
		if path == "" {
			path = "/"
		}
		if len(path) > 1 {
			path = strings.TrimRight(path, "/")
		}

		key := r.Method + " " + path
		if seen[key] {
			continue
		}
		seen[key] = true

		item := doc.Paths.Find(path)
		if item == nil || item.GetOperation(r.Method) == nil {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}
