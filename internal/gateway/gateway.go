// Package gateway performs every portal API call with uniform semantics:
// default headers, the session's bearer token, a single attempt, and
// classification of the response into payload, "no result" or error.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/kavach/internal/errors"
	"github.com/felixgeelhaar/kavach/internal/log"
	"github.com/felixgeelhaar/kavach/internal/metrics"
	"github.com/felixgeelhaar/kavach/internal/notify"
)

const (
	// SessionExpiredMessage is announced when the backend answers 401
	SessionExpiredMessage = "Session expired. Please login again."
	// GenericErrorMessage is used when an error body carries no message
	GenericErrorMessage = "An error occurred"
)

// ErrTransport marks failures where no response arrived
var ErrTransport = stderrors.New("transport failure")

// APIError is a non-success response other than 401
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Session supplies the bearer header and is ended on 401
type Session interface {
	AuthorizationHeader(ctx context.Context) http.Header
	EndSession(ctx context.Context) error
}

// Announcer shows a transient notification
type Announcer interface {
	Announce(message string, kind notify.Kind) int
}

// Options describe one request. Body and Method are sent unchanged.
type Options struct {
	Method string
	Body   io.Reader
	// Header entries replace defaults of the same name
	Header http.Header
	// Endpoint labels logs and metrics; it does not affect the request
	Endpoint string
}

// Gateway sends requests for one session
type Gateway struct {
	client    *http.Client
	session   Session
	announcer Announcer
	metrics   *metrics.Metrics
	logger    *log.Logger
	userAgent string
	requestID func() string
}

// Option configures a Gateway
type Option func(*Gateway)

// WithHTTPClient replaces the default client
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

// WithMetrics records every call
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithLogger sets the request logger
func WithLogger(l *log.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(g *Gateway) { g.userAgent = ua }
}

// WithRequestID replaces the X-Request-ID generator
func WithRequestID(f func() string) Option {
	return func(g *Gateway) { g.requestID = f }
}

// New creates a gateway. The default HTTP client has no timeout; a call
// is bounded only by ctx.
func New(session Session, announcer Announcer, opts ...Option) *Gateway {
	g := &Gateway{
		client:    &http.Client{},
		session:   session,
		announcer: announcer,
		logger:    log.Discard(),
		requestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Send performs one request to url.
//
// On 2xx it returns the payload (an empty body reads as JSON null). On 401
// it announces SessionExpiredMessage, ends the session and returns a nil
// payload with a nil error, whatever the body says. Other statuses return
// *APIError. Transport failures are logged and satisfy
// errors.Is(err, ErrTransport). There is no retry.
func (g *Gateway) Send(ctx context.Context, url string, opts Options) (json.RawMessage, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	label := opts.Endpoint
	if label == "" {
		label = "adhoc"
	}

	req, err := http.NewRequestWithContext(ctx, method, url, opts.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAPIRequest, fmt.Sprintf("failed to create request for %s", url), err)
	}

	requestID := g.requestID()
	g.applyHeaders(ctx, req, requestID, opts.Header)

	logger := g.logger.With("endpoint", label, "method", method, "url", url, "request_id", requestID)
	logger.DebugContext(ctx, "sending request")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		if g.metrics != nil {
			g.metrics.RecordTransportError(label)
		}
		terr := errors.NewTransportError(url, fmt.Errorf("%w: %w", ErrTransport, err))
		logger.LogErrorContext(ctx, "request failed", terr)
		return nil, terr
	}
	defer resp.Body.Close()

	// the body is consumed once, whatever the status
	body, readErr := io.ReadAll(resp.Body)
	elapsed := time.Since(start)

	if g.metrics != nil {
		g.metrics.RecordRequest(label, method, resp.StatusCode, elapsed)
	}
	logger.DebugContext(ctx, "received response", "status", resp.StatusCode, "duration_ms", elapsed.Milliseconds())

	if resp.StatusCode == http.StatusUnauthorized {
		g.expireSession(ctx, logger, label)
		return nil, nil
	}

	if readErr != nil {
		terr := errors.NewTransportError(url, fmt.Errorf("%w: %w", ErrTransport, readErr))
		logger.LogErrorContext(ctx, "failed to read response body", terr)
		return nil, terr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
		logger.WarnContext(ctx, "request rejected", "status", resp.StatusCode, "message", apiErr.Message)
		return nil, apiErr
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(trimmed) {
		return nil, errors.New(errors.ErrCodeAPIDecode, fmt.Sprintf("response from %s is not valid JSON", url)).
			WithSuggestion("Check that api.base_url points at the portal API, not its web frontend")
	}
	return json.RawMessage(trimmed), nil
}

func (g *Gateway) applyHeaders(ctx context.Context, req *http.Request, requestID string, override http.Header) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Expires", "0")
	req.Header.Set("X-Request-ID", requestID)
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	if g.session != nil {
		for k, vs := range g.session.AuthorizationHeader(ctx) {
			req.Header[k] = append([]string(nil), vs...)
		}
	}

	for k, vs := range override {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
}

func (g *Gateway) expireSession(ctx context.Context, logger *log.Logger, label string) {
	if g.metrics != nil {
		g.metrics.RecordUnauthorized(label)
	}
	logger.InfoContext(ctx, "session rejected by server, logging out")

	if g.announcer != nil {
		g.announcer.Announce(SessionExpiredMessage, notify.Error)
	}
	if g.session != nil {
		if err := g.session.EndSession(ctx); err != nil {
			logger.WithError(err).WarnContext(ctx, "failed to clear session after 401")
		}
	}
}

// errorMessage reads "detail", then "message", then falls back.
// A validation detail given as a list of {"msg": ...} entries is joined.
func errorMessage(body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return GenericErrorMessage
	}

	if msg := messageText(envelope.Detail); msg != "" {
		return msg
	}
	if msg := messageText(envelope.Message); msg != "" {
		return msg
	}
	return GenericErrorMessage
}

func messageText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// Call sends a request and decodes the payload into T. A nil result with a
// nil error means the session expired and the call produced no result.
func Call[T any](ctx context.Context, g *Gateway, url string, opts Options) (*T, error) {
	raw, err := g.Send(ctx, url, opts)
	if err != nil || raw == nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeAPIDecode, fmt.Sprintf("failed to decode response from %s", url), err)
	}
	return &out, nil
}

// JSONBody encodes v as a request body
func JSONBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAPIRequest, "failed to encode request body", err)
	}
	return bytes.NewReader(data), nil
}
