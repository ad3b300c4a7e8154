package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/kavach/internal/errors"
	"github.com/felixgeelhaar/kavach/internal/exitcode"
	"github.com/felixgeelhaar/kavach/internal/tui"
)

// portalStub is a minimal portal backend
type portalStub struct {
	t   *testing.T
	srv *httptest.Server

	mu        sync.Mutex
	expired   bool
	decisions []map[string]any
}

func newPortalStub(t *testing.T) *portalStub {
	t.Helper()
	p := &portalStub{t: t}

	mux := http.NewServeMux()
	login := func(category, name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"detail":"Invalid credentials"}`)
				return
			}
			fmt.Fprintf(w, `{"access_token":"tok-%s","token_type":"bearer","user":{"id":"U-%s","name":%q,"email":%q}}`,
				category, category, name, body["email"])
		}
	}
	mux.HandleFunc("POST /api/auth/customer/login", login("customer", "Ravi"))
	mux.HandleFunc("POST /api/auth/employee/login", login("employee", "Asha"))

	mux.HandleFunc("GET /api/claims", p.authed(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"C1","policy_number":"KS-1","claim_type":"accident","claim_amount":1200,"status":"submitted"},
			{"id":"C2","policy_number":"KS-1","claim_type":"outpatient","claim_amount":300,"status":"approved"}]`)
	}))
	mux.HandleFunc("POST /api/claims", p.authed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"detail":"Invalid claim"}`)
	}))
	mux.HandleFunc("GET /api/dashboard", p.authed(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"stats":{"total_claims":2,"pending_claims":1,"approved_claims":1}}`)
	}))
	mux.HandleFunc("POST /api/claims/{id}/decision", p.authed(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(p.t, json.NewDecoder(r.Body).Decode(&body))
		p.mu.Lock()
		p.decisions = append(p.decisions, body)
		p.mu.Unlock()
		fmt.Fprintf(w, `{"claim_id":%q,"status":"approved"}`, r.PathValue("id"))
	}))
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"healthy","service":"face-verification","model":"Facenet512"}`)
	})

	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *portalStub) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		expired := p.expired
		p.mu.Unlock()
		if expired || !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer tok-") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		h(w, r)
	}
}

func (p *portalStub) expire() {
	p.mu.Lock()
	p.expired = true
	p.mu.Unlock()
}

// harness runs commands against one config file and session file
type harness struct {
	t          *testing.T
	configPath string
}

func newHarness(t *testing.T, baseURL string) *harness {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf(`api:
  base_url: %s
  base_path: /api
session:
  backend: file
  path: %s
  passphrase: test-pass
notify:
  show_delay: 1h
  visible_for: 1h
`, baseURL, filepath.Join(dir, "session.json"))), 0o600))
	return &harness{t: t, configPath: configPath}
}

type result struct {
	out    string
	errOut string
	err    error
}

func (h *harness) run(args ...string) result {
	h.t.Helper()
	var out, errOut bytes.Buffer
	cc := &CommandContext{
		Out:         &out,
		ErrOut:      &errOut,
		interactive: func() bool { return false },
	}
	err := run(context.Background(), cc, append([]string{"--config", h.configPath}, args...))
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func errorCode(t *testing.T, err error) errors.ErrorCode {
	t.Helper()
	var kerr *errors.KavachError
	require.True(t, stderrors.As(err, &kerr), "expected coded error, got %v", err)
	return kerr.Code
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd(&CommandContext{})

	want := map[string][]string{
		"auth":       {"login", "logout", "status", "whoami"},
		"claims":     {"list", "show", "submit", "decide"},
		"documents":  {"upload", "verify", "delete"},
		"fraud":      {"analyze", "result"},
		"hospital":   {"verify"},
		"biometrics": {"face", "signature"},
		"endpoints":  {"list", "verify"},
		"config":     {"view", "get", "set", "path"},
	}
	for parent, subs := range want {
		cmd, _, err := root.Find([]string{parent})
		require.NoError(t, err, parent)
		for _, sub := range subs {
			found := false
			for _, c := range cmd.Commands() {
				if c.Name() == sub {
					found = true
				}
			}
			assert.True(t, found, "%s %s not registered", parent, sub)
		}
	}

	for _, leaf := range []string{"dashboard", "policies", "health", "doctor", "version"} {
		_, _, err := root.Find([]string{leaf})
		assert.NoError(t, err, leaf)
	}
}

func TestLoginThenListClaims(t *testing.T) {
	stub := newPortalStub(t)
	h := newHarness(t, stub.srv.URL)

	res := h.run("auth", "login", "--email", "ravi@example.com", "--password", "secret", "--format", "json")
	require.NoError(t, res.err)

	var login loginResult
	require.NoError(t, json.Unmarshal([]byte(res.out), &login))
	assert.Equal(t, "customer", string(login.Category))
	assert.Equal(t, "Ravi", login.User.Name)
	assert.Equal(t, "/customer/dashboard", string(login.Next))

	res = h.run("claims", "list", "--format", "json")
	require.NoError(t, res.err)
	var claims []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.out), &claims))
	assert.Len(t, claims, 2)

	res = h.run("claims", "list", "--status", "approved")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "C2")
	assert.NotContains(t, res.out, "C1 ")
}

func TestLoginRejected(t *testing.T) {
	stub := newPortalStub(t)
	h := newHarness(t, stub.srv.URL)

	res := h.run("auth", "login", "--email", "ravi@example.com", "--password", "wrong")
	require.Error(t, res.err)
	assert.Equal(t, errors.ErrCodeAuthLoginFailed, errorCode(t, res.err))
	assert.Contains(t, res.errOut, "invalid email or password")
	assert.True(t, Reported(res.err))

	res = h.run("auth", "status", "--format", "json")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, `"authenticated": false`)
}

func TestLoginNeedsCredentialsWhenNotInteractive(t *testing.T) {
	stub := newPortalStub(t)
	h := newHarness(t, stub.srv.URL)

	res := h.run("auth", "login", "--email", "ravi@example.com")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "email and password are required")
}

func TestRefusedCommandResumesAfterLogin(t *testing.T) {
	stub := newPortalStub(t)
	h := newHarness(t, stub.srv.URL)

	res := h.run("claims", "show", "C9")
	require.Error(t, res.err)
	assert.Equal(t, errors.ErrCodeAuthRequired, errorCode(t, res.err))
	assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(res.err))
	assert.Contains(t, res.errOut, "→ /customer/login")

	res = h.run("auth", "status", "--format", "json")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, `"pending_redirect": "/customer/claims/C9"`)

	res = h.run("auth", "login", "--email", "ravi@example.com", "--password", "secret")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Signed in as Ravi (customer).")
	assert.Contains(t, res.errOut, "→ /customer/claims/C9")
}

func TestSessionExpiryEndsSession(t *testing.T) {
	stub := newPortalStub(t)
	h := newHarness(t, stub.srv.URL)

	require.NoError(t, h.run("auth", "login", "--email", "ravi@example.com", "--password", "secret").err)
	stub.expire()

	res := h.run("dashboard")
	require.Error(t, res.err)
	assert.Equal(t, errors.ErrCodeAuthExpired, errorCode(t, res.err))
	assert.Equal(t, 1, strings.Count(res.errOut, "Session expired. Please login again."))
	assert.NotContains(t, res.errOut, "returned no result", "the gateway already told the user")
	assert.Contains(t, res.errOut, "→ /")
	assert.True(t, Reported(res.err))

	res = h.run("auth", "status", "--format", "json")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, `"authenticated": false`)
}

func TestApplicationFailureIsAnnounced(t *testing.T) {
	stub := newPortalStub(t)
	h := newHarness(t, stub.srv.URL)

	require.NoError(t, h.run("auth", "login", "--email", "ravi@example.com", "--password", "secret").err)

	res := h.run("claims", "submit", "--policy", "P1", "--type", "accident", "--amount", "1200", "--description", "fall")
	require.Error(t, res.err)
	assert.Equal(t, "Invalid claim", res.err.Error())
	assert.Contains(t, res.errOut, "✗ Invalid claim")
	assert.True(t, Reported(res.err))
}

func TestSetupFailureIsLeftToCaller(t *testing.T) {
	stub := newPortalStub(t)
	h := newHarness(t, stub.srv.URL)

	res := h.run("claims", "list", "--format", "xml")
	require.Error(t, res.err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errorCode(t, res.err))
	assert.False(t, Reported(res.err))
}

func TestDecideNeedsEmployee(t *testing.T) {
	stub := newPortalStub(t)
	h := newHarness(t, stub.srv.URL)

	require.NoError(t, h.run("auth", "login", "--email", "ravi@example.com", "--password", "secret").err)

	res := h.run("claims", "decide", "C1", "--decision", "approve")
	require.Error(t, res.err)
	assert.Equal(t, errors.ErrCodeAuthCategory, errorCode(t, res.err))
}

func TestDecideSubmitsDecision(t *testing.T) {
	stub := newPortalStub(t)
	h := newHarness(t, stub.srv.URL)

	require.NoError(t, h.run("auth", "login", "--as", "employee", "--email", "asha@kavach.example", "--password", "secret").err)

	res := h.run("claims", "decide", "C1", "--decision", "approve", "--amount", "1000", "--remarks", "capped")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Claim C1 is now approved.")

	require.Len(t, stub.decisions, 1)
	assert.Equal(t, "approve", stub.decisions[0]["decision"])
	assert.Equal(t, 1000.0, stub.decisions[0]["approved_amount"])
	assert.Equal(t, "capped", stub.decisions[0]["remarks"])

	res = h.run("claims", "decide", "C1")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "--decision is required")
}

func TestHealthNeedsNoSession(t *testing.T) {
	stub := newPortalStub(t)
	h := newHarness(t, stub.srv.URL)

	res := h.run("health", "--metrics-dump")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "healthy")
	assert.Contains(t, res.out, "Facenet512")
	assert.Contains(t, res.errOut, `kavach_requests_total{endpoint="health",method="GET",status="200"} 1`)
	assert.Contains(t, res.errOut, "kavach_command_executions_total")
}

func TestEphemeralSessionIsNotStored(t *testing.T) {
	stub := newPortalStub(t)
	h := newHarness(t, stub.srv.URL)

	require.NoError(t, h.run("--ephemeral", "auth", "login", "--email", "ravi@example.com", "--password", "secret").err)

	res := h.run("auth", "status", "--format", "json")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, `"authenticated": false`)
}

func TestEndpointsVerify(t *testing.T) {
	stub := newPortalStub(t)
	h := newHarness(t, stub.srv.URL)

	contract := filepath.Join(t.TempDir(), "openapi.yaml")
	require.NoError(t, os.WriteFile(contract, []byte(`openapi: 3.0.0
info:
  title: portal
  version: "1"
paths:
  /health:
    get:
      responses:
        "200":
          description: ok
`), 0o600))

	res := h.run("endpoints", "verify", "--openapi", contract, "--format", "json")
	require.Error(t, res.err)
	assert.Equal(t, errors.ErrCodeAPIContractDrift, errorCode(t, res.err))
	assert.Equal(t, exitcode.ContractDrift, exitcode.DetermineExitCode(res.err))
	assert.Contains(t, res.out, `"endpoint": "customer_login"`)
	assert.NotContains(t, res.out, `"endpoint": "health"`)

	res = h.run("endpoints", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, stub.srv.URL+"/api")
	assert.Contains(t, res.out, "/claims/{claim_id}/decision")
}

func TestConfigSetKeepsEnvironmentOut(t *testing.T) {
	stub := newPortalStub(t)
	h := newHarness(t, stub.srv.URL)
	t.Setenv("KAVACH_LOGGING_LEVEL", "error")

	res := h.run("config", "set", "defaults.format", "yaml")
	require.NoError(t, res.err)

	data, err := os.ReadFile(h.configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "format: yaml")
	assert.NotContains(t, string(data), "level: error")

	res = h.run("config", "get", "logging.level")
	require.NoError(t, res.err)
	assert.Equal(t, "error", strings.TrimSpace(res.out))

	res = h.run("config", "get", "session.passphrase")
	require.NoError(t, res.err)
	assert.Equal(t, "********", strings.TrimSpace(res.out))

	res = h.run("config", "get", "no.such.key")
	assert.Equal(t, errors.ErrCodeConfigKey, errorCode(t, res.err))
}

func TestVersionSkipsSetup(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("api: [unterminated"), 0o600))
	h := &harness{t: t, configPath: bad}

	res := h.run("version")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "kavach ")

	res = h.run("health")
	require.Error(t, res.err)
	assert.Equal(t, errors.ErrCodeFileUnmarshal, errorCode(t, res.err))
}

func TestDecisionInput(t *testing.T) {
	d, err := decision(decisionInput("Approve", "250.5", " ok "))
	require.NoError(t, err)
	assert.Equal(t, "approve", string(d.Decision))
	require.NotNil(t, d.ApprovedAmount)
	assert.Equal(t, 250.5, *d.ApprovedAmount)
	assert.Equal(t, "ok", d.Remarks)

	_, err = decision(decisionInput("escalate", "", ""))
	assert.Error(t, err)

	_, err = decision(decisionInput("reject", "10", ""))
	assert.ErrorContains(t, err, "only applies to approve")

	d, err = decision(decisionInput("request_info", "", ""))
	require.NoError(t, err)
	assert.Nil(t, d.ApprovedAmount)
}

func decisionInput(outcome, approved, remarks string) tui.DecisionInput {
	return tui.DecisionInput{Decision: outcome, ApprovedAmount: approved, Remarks: remarks}
}

func TestClaimSubmission(t *testing.T) {
	sub, err := claimSubmission(tui.ClaimInput{
		PolicyID:    "P1",
		ClaimType:   "accident",
		Amount:      " 4200 ",
		Description: " fell ",
	})
	require.NoError(t, err)
	assert.Equal(t, 4200.0, sub.Amount)
	assert.Equal(t, "fell", sub.Description)

	_, err = claimSubmission(tui.ClaimInput{Amount: "-1"})
	assert.ErrorContains(t, err, "invalid --amount")

	_, err = claimSubmission(tui.ClaimInput{Amount: "10", IncidentDate: "01/02/2024"})
	assert.ErrorContains(t, err, "invalid --incident-date")
}

func TestDoctor(t *testing.T) {
	stub := newPortalStub(t)
	h := newHarness(t, stub.srv.URL)

	res := h.run("doctor", "--format", "json")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, `"name": "portal-api"`)
	assert.Contains(t, res.out, `"status": "healthy"`)

	stub.srv.Close()
	res = h.run("doctor")
	require.Error(t, res.err)
	assert.Contains(t, res.out, "portal unreachable")
	assert.Contains(t, res.out, "Overall: unhealthy")
}
