// Package portal is the typed client of the claims portal API. Each
// endpoint has explicit request and response records; every call goes
// through the gateway so session handling stays uniform.
package portal

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/kavach/internal/endpoint"
	"github.com/felixgeelhaar/kavach/internal/errors"
	"github.com/felixgeelhaar/kavach/internal/gateway"
	"github.com/felixgeelhaar/kavach/internal/log"
	"github.com/felixgeelhaar/kavach/internal/metrics"
	"github.com/felixgeelhaar/kavach/internal/session"
)

// ErrNoResult is wrapped by calls the server answered with 401. By then
// the session has already been ended and the user notified.
var ErrNoResult = stderrors.New("no result")

// Client calls portal endpoints for one session
type Client struct {
	registry *endpoint.Registry
	gateway  *gateway.Gateway
	session  *session.Manager
	metrics  *metrics.Metrics
	logger   *log.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithMetrics records logins and logouts
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the client logger
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a portal client
func NewClient(reg *endpoint.Registry, gw *gateway.Gateway, sess *session.Manager, opts ...ClientOption) *Client {
	c := &Client{
		registry: reg,
		gateway:  gw,
		session:  sess,
		logger:   log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func noResult(name endpoint.Name) error {
	return errors.Wrap(errors.ErrCodeAuthExpired, fmt.Sprintf("%s returned no result", name), ErrNoResult).
		WithSuggestion("Run 'kavach auth login' to authenticate again")
}

// call resolves name, sends body as JSON when non-nil, and decodes T
func call[T any](ctx context.Context, c *Client, name endpoint.Name, params map[string]any, body any) (*T, error) {
	ep, err := c.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	url, err := c.registry.URL(name, params)
	if err != nil {
		return nil, err
	}

	opts := gateway.Options{Method: ep.Method, Endpoint: string(name)}
	if body != nil {
		var r io.Reader
		if r, err = gateway.JSONBody(body); err != nil {
			return nil, err
		}
		opts.Body = r
	}

	out, err := gateway.Call[T](ctx, c.gateway, url, opts)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, noResult(name)
	}
	return out, nil
}

// Login authenticates against the category's login endpoint, starts the
// session and caches the returned profile.
func (c *Client) Login(ctx context.Context, category session.Category, email, password string) (*LoginResponse, error) {
	name := endpoint.CustomerLogin
	if category == session.Employee {
		name = endpoint.EmployeeLogin
	}

	resp, err := call[LoginResponse](ctx, c, name, nil, LoginRequest{Email: email, Password: password})
	if err != nil {
		if stderrors.Is(err, ErrNoResult) {
			return nil, errors.Wrap(errors.ErrCodeAuthLoginFailed, "invalid email or password", err)
		}
		return nil, err
	}

	token := resp.BearerToken()
	if token == "" {
		return nil, errors.New(errors.ErrCodeAuthLoginFailed, "login response carried no token")
	}
	if err := c.session.StartSession(ctx, token, category); err != nil {
		return nil, err
	}
	if resp.User != nil && resp.User.ID != "" {
		if resp.User.UserType == "" {
			resp.User.UserType = category
		}
		if err := c.session.AttachProfile(ctx, resp.User); err != nil {
			c.logger.WithError(err).WarnContext(ctx, "failed to cache profile")
		}
	}

	if c.metrics != nil {
		c.metrics.RecordSession("login", string(category))
	}
	c.logger.InfoContext(ctx, "logged in", "category", category)
	return resp, nil
}

// Logout ends the session
func (c *Client) Logout(ctx context.Context) error {
	category := c.session.CurrentCategory(ctx)
	err := c.session.EndSession(ctx)
	if c.metrics != nil {
		c.metrics.RecordSession("logout", string(category))
	}
	return err
}

// Me fetches the signed-in user and refreshes the cached profile
func (c *Client) Me(ctx context.Context) (*session.Profile, error) {
	p, err := call[session.Profile](ctx, c, endpoint.CurrentUser, nil, nil)
	if err != nil {
		return nil, err
	}
	if err := c.session.AttachProfile(ctx, p); err != nil {
		c.logger.WithError(err).WarnContext(ctx, "failed to cache profile")
	}
	return p, nil
}

func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	return call[Dashboard](ctx, c, endpoint.Dashboard, nil, nil)
}

func (c *Client) Policies(ctx context.Context) ([]Policy, error) {
	out, err := call[[]Policy](ctx, c, endpoint.Policies, nil, nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (c *Client) Claims(ctx context.Context) ([]Claim, error) {
	out, err := call[[]Claim](ctx, c, endpoint.Claims, nil, nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (c *Client) Claim(ctx context.Context, claimID string) (*Claim, error) {
	return call[Claim](ctx, c, endpoint.ClaimDetail, map[string]any{"claim_id": claimID}, nil)
}

func (c *Client) SubmitClaim(ctx context.Context, sub ClaimSubmission) (*Claim, error) {
	return call[Claim](ctx, c, endpoint.SubmitClaim, nil, sub)
}

// UploadDocument attaches a document to a claim
func (c *Client) UploadDocument(ctx context.Context, claimID string, doc DocumentUpload) (*Document, error) {
	return call[Document](ctx, c, endpoint.UploadDocument, map[string]any{"claim_id": claimID}, doc)
}

func (c *Client) VerifyDocument(ctx context.Context, documentID string) (*DocumentVerification, error) {
	return call[DocumentVerification](ctx, c, endpoint.VerifyDocument, map[string]any{"document_id": documentID}, nil)
}

// DeleteDocument removes a document. The server's reply body is ignored.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := call[any](ctx, c, endpoint.DeleteDocument, map[string]any{"document_id": documentID}, nil)
	return err
}

func (c *Client) TriggerFraudAnalysis(ctx context.Context, claimID string) (*FraudAnalysis, error) {
	return call[FraudAnalysis](ctx, c, endpoint.TriggerFraudAnalysis, map[string]any{"claim_id": claimID}, nil)
}

func (c *Client) FraudResult(ctx context.Context, claimID string) (*FraudAnalysis, error) {
	return call[FraudAnalysis](ctx, c, endpoint.FraudResult, map[string]any{"claim_id": claimID}, nil)
}

func (c *Client) VerifyHospital(ctx context.Context, claimID string, req HospitalVerificationRequest) (*HospitalVerification, error) {
	return call[HospitalVerification](ctx, c, endpoint.VerifyHospital, map[string]any{"claim_id": claimID}, req)
}

// SubmitDecision records an employee decision on a claim
func (c *Client) SubmitDecision(ctx context.Context, claimID string, d Decision) (*DecisionResult, error) {
	if _, ok := ParseOutcome(string(d.Decision)); !ok {
		return nil, errors.New(errors.ErrCodeAPIRequest, fmt.Sprintf("unknown decision: %s", d.Decision)).
			WithSuggestion("Use one of: approve, reject, request_info")
	}
	return call[DecisionResult](ctx, c, endpoint.SubmitDecision, map[string]any{"claim_id": claimID}, d)
}

func (c *Client) VerifyFace(ctx context.Context, req FaceVerificationRequest) (*FaceVerification, error) {
	return call[FaceVerification](ctx, c, endpoint.FaceVerify, nil, req)
}

func (c *Client) VerifySignature(ctx context.Context, req SignatureVerificationRequest) (*SignatureVerification, error) {
	return call[SignatureVerification](ctx, c, endpoint.SignatureVerify, nil, req)
}

// Health probes the backend. It needs no session.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	return call[Health](ctx, c, endpoint.Health, nil, nil)
}
