// Package endpoint is the single source of truth mapping portal operations
// to relative API paths.
//
// Templates carry named placeholders such as {claim_id}. Resolution is
// lenient: a placeholder with no supplied value stays in the URL verbatim.
package endpoint

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/yosida95/uritemplate/v3"

	"github.com/felixgeelhaar/kavach/internal/errors"
)

// Name identifies a logical portal operation
type Name string

// Registered portal operations
const (
	CustomerLogin        Name = "customer_login"
	EmployeeLogin        Name = "employee_login"
	CurrentUser          Name = "current_user"
	Dashboard            Name = "dashboard"
	Policies             Name = "policies"
	Claims               Name = "claims"
	ClaimDetail          Name = "claim_detail"
	SubmitClaim          Name = "submit_claim"
	UploadDocument       Name = "upload_document"
	VerifyDocument       Name = "verify_document"
	DeleteDocument       Name = "delete_document"
	TriggerFraudAnalysis Name = "trigger_fraud_analysis"
	FraudResult          Name = "fraud_result"
	VerifyHospital       Name = "verify_hospital"
	SubmitDecision       Name = "submit_decision"
	FaceVerify           Name = "face_verify"
	SignatureVerify      Name = "signature_verify"
	Health               Name = "health"
)

// Endpoint describes one backend operation
type Endpoint struct {
	Name     Name   `json:"name" yaml:"name"`
	Method   string `json:"method" yaml:"method"`
	Template string `json:"template" yaml:"template"`
	// Public endpoints are callable without a session
	Public bool `json:"public,omitempty" yaml:"public,omitempty"`
}

// Defaults is the portal's endpoint table.
var Defaults = []Endpoint{
	{Name: CustomerLogin, Method: http.MethodPost, Template: "/auth/customer/login", Public: true},
	{Name: EmployeeLogin, Method: http.MethodPost, Template: "/auth/employee/login", Public: true},
	{Name: CurrentUser, Method: http.MethodGet, Template: "/auth/me"},
	{Name: Dashboard, Method: http.MethodGet, Template: "/dashboard"},
	{Name: Policies, Method: http.MethodGet, Template: "/policies"},
	{Name: Claims, Method: http.MethodGet, Template: "/claims"},
	{Name: ClaimDetail, Method: http.MethodGet, Template: "/claims/{claim_id}"},
	{Name: SubmitClaim, Method: http.MethodPost, Template: "/claims"},
	{Name: UploadDocument, Method: http.MethodPost, Template: "/claims/{claim_id}/documents"},
	{Name: VerifyDocument, Method: http.MethodPost, Template: "/documents/{document_id}/verify"},
	{Name: DeleteDocument, Method: http.MethodDelete, Template: "/documents/{document_id}"},
	{Name: TriggerFraudAnalysis, Method: http.MethodPost, Template: "/claims/{claim_id}/fraud-analysis"},
	{Name: FraudResult, Method: http.MethodGet, Template: "/claims/{claim_id}/fraud-analysis"},
	{Name: VerifyHospital, Method: http.MethodPost, Template: "/claims/{claim_id}/hospital-verification"},
	{Name: SubmitDecision, Method: http.MethodPost, Template: "/claims/{claim_id}/decision"},
	{Name: FaceVerify, Method: http.MethodPost, Template: "/biometrics/face/verify"},
	{Name: SignatureVerify, Method: http.MethodPost, Template: "/biometrics/signature/verify"},
	{Name: Health, Method: http.MethodGet, Template: "/health", Public: true},
}

var placeholderRE = regexp.MustCompile(`\{([^{}]+)\}`)

// Resolve returns basePath+template with every {name} replaced by the string
// form of params[name]. Placeholders without a value are left as-is.
func Resolve(basePath, template string, params map[string]any) string {
	resolved := placeholderRE.ReplaceAllStringFunc(template, func(m string) string {
		v, ok := params[m[1:len(m)-1]]
		if !ok {
			return m
		}
		return fmt.Sprint(v)
	})
	return basePath + resolved
}

// Registry maps endpoint names to templates under a base URL
type Registry struct {
	base      string
	endpoints map[Name]Endpoint
	vars      map[Name][]string
}

// NewRegistry builds a registry rooted at base (scheme, host and any path
// prefix). Templates must be simple RFC 6570 templates.
func NewRegistry(base string, endpoints []Endpoint) (*Registry, error) {
	r := &Registry{
		base:      strings.TrimRight(base, "/"),
		endpoints: make(map[Name]Endpoint, len(endpoints)),
		vars:      make(map[Name][]string, len(endpoints)),
	}

	for _, ep := range endpoints {
		if _, dup := r.endpoints[ep.Name]; dup {
			return nil, fmt.Errorf("duplicate endpoint %q", ep.Name)
		}
		if !strings.HasPrefix(ep.Template, "/") {
			return nil, fmt.Errorf("endpoint %q: template must start with '/': %s", ep.Name, ep.Template)
		}

		tmpl, err := uritemplate.New(ep.Template)
		if err != nil {
			return nil, fmt.Errorf("endpoint %q: invalid template %q: %w", ep.Name, ep.Template, err)
		}
		names := tmpl.Varnames()
		for _, v := range names {
			if !strings.Contains(ep.Template, "{"+v+"}") {
				return nil, fmt.Errorf("endpoint %q: only simple placeholders are supported, got %s", ep.Name, ep.Template)
			}
		}

		if ep.Method == "" {
			ep.Method = http.MethodGet
		}
		r.endpoints[ep.Name] = ep
		r.vars[ep.Name] = names
	}

	return r, nil
}

// Default returns the registry of Defaults under base.
func Default(base string) *Registry {
	r, err := NewRegistry(base, Defaults)
	if err != nil {
		panic(err)
	}
	return r
}

// BaseURL returns the base every template is resolved against
func (r *Registry) BaseURL() string {
	return r.base
}

// Lookup returns the endpoint registered under name
func (r *Registry) Lookup(name Name) (Endpoint, error) {
	ep, ok := r.endpoints[name]
	if !ok {
		return Endpoint{}, errors.NewUnknownEndpointError(string(name))
	}
	return ep, nil
}

// URL resolves a registered endpoint against the base URL.
func (r *Registry) URL(name Name, params map[string]any) (string, error) {
	ep, err := r.Lookup(name)
	if err != nil {
		return "", err
	}
	return Resolve(r.base, ep.Template, params), nil
}

// Placeholders lists the placeholder names of a registered endpoint in
// template order.
func (r *Registry) Placeholders(name Name) ([]string, error) {
	if _, err := r.Lookup(name); err != nil {
		return nil, err
	}
	return append([]string(nil), r.vars[name]...), nil
}

// Endpoints returns every registered endpoint sorted by name
func (r *Registry) Endpoints() []Endpoint {
	out := make([]Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		out = append(out, ep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
