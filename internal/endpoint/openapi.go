package endpoint

import (
	"context"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Finding reports a registered endpoint the backend contract does not declare
type Finding struct {
	Code     string `json:"code"`
	Endpoint Name   `json:"endpoint"`
	Method   string `json:"method"`
	Path     string `json:"path"`
	Message  string `json:"message"`
}

// Contract is a loaded backend OpenAPI document
type Contract struct {
	doc  *openapi3.T
	path string
}

// LoadContract reads and validates an OpenAPI document from path
func LoadContract(ctx context.Context, path string) (*Contract, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}

	return &Contract{doc: doc, path: path}, nil
}

// Check compares every registered endpoint with the contract. Templates are
// compared as paths relative to the document's servers.
func (c *Contract) Check(r *Registry) []Finding {
	var findings []Finding

	for _, ep := range r.Endpoints() {
		// Find ignores differences in parameter names
		item := c.doc.Paths.Find(ep.Template)
		if item == nil {
			findings = append(findings, Finding{
				Code:     "MISSING_PATH",
				Endpoint: ep.Name,
				Method:   ep.Method,
				Path:     ep.Template,
				Message:  fmt.Sprintf("path not declared in %s", c.path),
			})
			continue
		}

		if item.GetOperation(strings.ToUpper(ep.Method)) == nil {
			findings = append(findings, Finding{
				Code:     "MISSING_METHOD",
				Endpoint: ep.Name,
				Method:   ep.Method,
				Path:     ep.Template,
				Message:  fmt.Sprintf("method %s not declared for path", ep.Method),
			})
		}
	}

	return findings
}
