// Package tui holds the interactive forms used when a command is run
// without the flags it needs.
package tui

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
)

// LoginInput is what the login form collects
type LoginInput struct {
	Category string
	Email    string
	Password string
}

// NewLoginForm builds the login form over in. Fields already set are
// kept as defaults.
func NewLoginForm(in *LoginInput) *huh.Form {
	if in.Category == "" {
		in.Category = "customer"
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Sign in as").
				Options(
					huh.NewOption("Customer", "customer"),
					huh.NewOption("Employee", "employee"),
				).
				Value(&in.Category),
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Validate(ValidateEmail).
				Value(&in.Email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Validate(required("password")).
				Value(&in.Password),
		),
	)
}

// PromptLogin runs the login form
func PromptLogin(in *LoginInput) error {
	if err := NewLoginForm(in).Run(); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

// ClaimInput is what the claim submission form collects
type ClaimInput struct {
	PolicyID     string
	ClaimType    string
	Amount       string
	Description  string
	IncidentDate string
	HospitalName string
}

// ClaimTypes offered by the submission form
var ClaimTypes = []string{"hospitalization", "outpatient", "accident", "critical_illness", "maternity"}

// NewClaimForm builds the claim submission form. policies are offered
// for selection; when empty the policy id is typed in.
func NewClaimForm(in *ClaimInput, policies []huh.Option[string]) *huh.Form {
	var policyField huh.Field
	if len(policies) > 0 {
		policyField = huh.NewSelect[string]().
			Title("Policy").
			Options(policies...).
			Value(&in.PolicyID)
	} else {
		policyField = huh.NewInput().
			Title("Policy ID").
			Validate(required("policy id")).
			Value(&in.PolicyID)
	}

	typeOptions := make([]huh.Option[string], len(ClaimTypes))
	for i, ct := range ClaimTypes {
		typeOptions[i] = huh.NewOption(strings.ReplaceAll(ct, "_", " "), ct)
	}

	return huh.NewForm(
		huh.NewGroup(
			policyField,
			huh.NewSelect[string]().
				Title("Claim type").
				Options(typeOptions...).
				Value(&in.ClaimType),
			huh.NewInput().
				Title("Claim amount").
				Validate(ValidateAmount).
				Value(&in.Amount),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Incident date").
				Placeholder("YYYY-MM-DD").
				Validate(ValidateDate).
				Value(&in.IncidentDate),
			huh.NewInput().
				Title("Hospital").
				Value(&in.HospitalName),
			huh.NewText().
				Title("Description").
				Validate(required("description")).
				Value(&in.Description),
		),
	)
}

// PromptClaim runs the claim submission form
func PromptClaim(in *ClaimInput, policies []huh.Option[string]) error {
	if err := NewClaimForm(in, policies).Run(); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

// DecisionInput is what the decision form collects
type DecisionInput struct {
	Decision       string
	ApprovedAmount string
	Remarks        string
	Confirmed      bool
}

// NewDecisionForm builds the claim decision form
func NewDecisionForm(in *DecisionInput, claimID string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Decision for claim %s", claimID)).
				Options(
					huh.NewOption("Approve", "approve"),
					huh.NewOption("Reject", "reject"),
					huh.NewOption("Request more information", "request_info"),
				).
				Value(&in.Decision),
			huh.NewInput().
				Title("Approved amount (approve only)").
				Validate(optionalAmount).
				Value(&in.ApprovedAmount),
			huh.NewText().
				Title("Remarks").
				Value(&in.Remarks),
			huh.NewConfirm().
				Title("Submit this decision?").
				Value(&in.Confirmed),
		),
	)
}

// PromptDecision runs the decision form
func PromptDecision(in *DecisionInput, claimID string) error {
	if err := NewDecisionForm(in, claimID).Run(); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

// PromptForConfirmation displays a yes/no confirmation prompt
func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue

	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(message).
			Value(&confirmed),
	))

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}

// ValidateEmail accepts addresses of the form local@domain
func ValidateEmail(s string) error {
	s = strings.TrimSpace(s)
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 || strings.Count(s, "@") != 1 {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

// ValidateAmount accepts positive decimal amounts
func ValidateAmount(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("enter a number")
	}
	if v <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}

func optionalAmount(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return ValidateAmount(s)
}

// ValidateDate accepts empty input or a YYYY-MM-DD date not in the future
func ValidateDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}
	if d.After(time.Now()) {
		return fmt.Errorf("incident date is in the future")
	}
	return nil
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt returns true if prompts should be shown based on environment
// Prompts are disabled in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	ciEnvVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"BUILDKITE",
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return false
		}
	}

	return IsInteractive()
}
