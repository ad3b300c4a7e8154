package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kavach/internal/errors"
	"github.com/felixgeelhaar/kavach/internal/portal"
	"github.com/felixgeelhaar/kavach/internal/session"
	"github.com/felixgeelhaar/kavach/internal/tui"
	"github.com/felixgeelhaar/kavach/internal/ux"
)

func newClaimsCmd(cc *CommandContext) *cobra.Command {
	claimsCmd := &cobra.Command{
		Use:   "claims",
		Short: "List, submit and decide claims",
		Long: `Work with insurance claims.

Examples:
  kavach claims list
  kavach claims show C-1024
  kavach claims submit --policy P-7 --type hospitalization --amount 42000 --description "Appendectomy"
  kavach claims decide C-1024 --decision approve --amount 40000 --remarks "Room rent capped"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	claimsCmd.AddCommand(
		newClaimsListCmd(cc),
		newClaimsShowCmd(cc),
		newClaimsSubmitCmd(cc),
		newClaimsDecideCmd(cc),
	)
	return claimsCmd
}

func claimTable(w io.Writer, claims []portal.Claim) error {
	rows := make([][]string, 0, len(claims))
	for _, c := range claims {
		rows = append(rows, []string{c.ID, c.PolicyNumber, c.ClaimType, amount(c.Amount), string(c.Status), c.SubmittedAt})
	}
	return ux.Table(w, []string{"ID", "POLICY", "TYPE", "AMOUNT", "STATUS", "SUBMITTED"}, rows)
}

func newClaimsListCmd(cc *CommandContext) *cobra.Command {
	var status string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List claims",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := cc.RequireSession(ctx, ""); err != nil {
				return err
			}

			claims, err := withBusy(cc, "Loading claims…", func() ([]portal.Claim, error) {
				return cc.Client.Claims(ctx)
			})
			if err != nil {
				return err
			}
			if status != "" {
				claims = filterClaims(claims, portal.ClaimStatus(status))
			}

			return cc.Output(view{data: claims, text: func(w io.Writer) error {
				if len(claims) == 0 {
					_, err := fmt.Fprintln(w, "No claims.")
					return err
				}
				return claimTable(w, claims)
			}})
		},
	}

	listCmd.Flags().StringVar(&status, "status", "", "only show claims in this status (e.g. under_review)")
	return listCmd
}

func filterClaims(claims []portal.Claim, status portal.ClaimStatus) []portal.Claim {
	out := make([]portal.Claim, 0, len(claims))
	for _, c := range claims {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out
}

func newClaimsShowCmd(cc *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <claim-id>",
		Short: "Show one claim with its documents and decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			claimID := args[0]
			if err := cc.RequireSession(ctx, session.ClaimPage(cc.Session.CurrentCategory(ctx), claimID)); err != nil {
				return err
			}

			claim, err := withBusy(cc, "Loading claim…", func() (*portal.Claim, error) {
				return cc.Client.Claim(ctx, claimID)
			})
			if err != nil {
				return err
			}
			return cc.Output(view{data: claim, text: func(w io.Writer) error {
				return renderClaim(w, claim)
			}})
		},
	}
}

func renderClaim(w io.Writer, c *portal.Claim) error {
	pairs := []string{
		"Claim", c.ID,
		"Number", c.ClaimNumber,
		"Policy", firstNonEmpty(c.PolicyNumber, c.PolicyID),
		"Customer", c.CustomerName,
		"Type", c.ClaimType,
		"Amount", amount(c.Amount),
		"Status", string(c.Status),
		"Incident date", c.IncidentDate,
		"Hospital", c.HospitalName,
		"Submitted", c.SubmittedAt,
		"Description", c.Description,
	}
	if c.FraudScore != nil {
		pairs = append(pairs, "Fraud score", percent(*c.FraudScore))
	}
	if err := fields(w, pairs...); err != nil {
		return err
	}

	if len(c.Documents) > 0 {
		fmt.Fprintln(w, "\nDocuments")
		if err := documentTable(w, c.Documents); err != nil {
			return err
		}
	}

	if d := c.Decision; d != nil {
		fmt.Fprintln(w, "\nDecision")
		approved := ""
		if d.ApprovedAmount != nil {
			approved = amount(*d.ApprovedAmount)
		}
		return fields(w,
			"Outcome", string(d.Decision),
			"Approved amount", approved,
			"Remarks", d.Remarks,
			"Decided by", d.DecidedBy,
			"Decided at", d.DecidedAt,
		)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func newClaimsSubmitCmd(cc *CommandContext) *cobra.Command {
	var in tui.ClaimInput

	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new claim",
		Long: `Submit a claim against one of your policies. Missing fields are prompted
for when running in a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := cc.RequireSession(ctx, session.DashboardFor(session.Customer)); err != nil {
				return err
			}

			if in.PolicyID == "" || in.ClaimType == "" || in.Amount == "" || in.Description == "" {
				if !cc.CanPrompt() {
					return errors.New(errors.ErrCodeAPIRequest, "policy, type, amount and description are required").
						WithSuggestion("Pass --policy, --type, --amount and --description")
				}
				var options []huh.Option[string]
				if in.PolicyID == "" {
					policies, err := withBusy(cc, "Loading policies…", func() ([]portal.Policy, error) {
						return cc.Client.Policies(ctx)
					})
					if err != nil {
						return err
					}
					for _, p := range policies {
						options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", p.PolicyNumber, p.PolicyType), p.ID))
					}
				}
				if err := tui.PromptClaim(&in, options); err != nil {
					return err
				}
			}

			sub, err := claimSubmission(in)
			if err != nil {
				return err
			}

			claim, err := withBusy(cc, "Submitting claim…", func() (*portal.Claim, error) {
				return cc.Client.SubmitClaim(ctx, sub)
			})
			if err != nil {
				return err
			}
			return cc.Output(message(claim, "Claim %s submitted (%s).", claim.ID, claim.Status))
		},
	}

	f := submitCmd.Flags()
	f.StringVar(&in.PolicyID, "policy", "", "policy id")
	f.StringVar(&in.ClaimType, "type", "", "claim type: "+strings.Join(tui.ClaimTypes, ", "))
	f.StringVar(&in.Amount, "amount", "", "claimed amount")
	f.StringVar(&in.Description, "description", "", "what happened")
	f.StringVar(&in.IncidentDate, "incident-date", "", "date of the incident (YYYY-MM-DD)")
	f.StringVar(&in.HospitalName, "hospital", "", "treating hospital")
	return submitCmd
}

// claimSubmission validates form or flag input
func claimSubmission(in tui.ClaimInput) (portal.ClaimSubmission, error) {
	if err := tui.ValidateAmount(in.Amount); err != nil {
		return portal.ClaimSubmission{}, errors.Wrap(errors.ErrCodeAPIRequest, "invalid --amount", err)
	}
	if err := tui.ValidateDate(in.IncidentDate); err != nil {
		return portal.ClaimSubmission{}, errors.Wrap(errors.ErrCodeAPIRequest, "invalid --incident-date", err)
	}
	v, _ := strconv.ParseFloat(strings.TrimSpace(in.Amount), 64)

	return portal.ClaimSubmission{
		PolicyID:     in.PolicyID,
		ClaimType:    in.ClaimType,
		Amount:       v,
		Description:  strings.TrimSpace(in.Description),
		IncidentDate: strings.TrimSpace(in.IncidentDate),
		HospitalName: strings.TrimSpace(in.HospitalName),
	}, nil
}

func newClaimsDecideCmd(cc *CommandContext) *cobra.Command {
	var in tui.DecisionInput

	decideCmd := &cobra.Command{
		Use:   "decide <claim-id>",
		Short: "Record a decision on a claim (employees)",
		Long: `Approve, reject or request more information on a claim. Without
--decision a form is shown in a terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			claimID := args[0]
			if err := cc.RequireEmployee(ctx, session.ClaimPage(session.Employee, claimID)); err != nil {
				return err
			}

			if in.Decision == "" {
				if !cc.CanPrompt() {
					return errors.New(errors.ErrCodeAPIRequest, "--decision is required").
						WithSuggestion("Use --decision approve, reject or request_info")
				}
				if err := tui.PromptDecision(&in, claimID); err != nil {
					return err
				}
				if !in.Confirmed {
					return cc.Output(message(map[string]bool{"submitted": false}, "Decision not submitted."))
				}
			}

			d, err := decision(in)
			if err != nil {
				return err
			}

			res, err := withBusy(cc, "Submitting decision…", func() (*portal.DecisionResult, error) {
				return cc.Client.SubmitDecision(ctx, claimID, d)
			})
			if err != nil {
				return err
			}
			return cc.Output(view{data: res, text: func(w io.Writer) error {
				fmt.Fprintf(w, "Claim %s is now %s.\n", firstNonEmpty(res.ClaimID, claimID), res.Status)
				if res.Message != "" {
					fmt.Fprintln(w, res.Message)
				}
				return nil
			}})
		},
	}

	f := decideCmd.Flags()
	f.StringVar(&in.Decision, "decision", "", "approve, reject or request_info")
	f.StringVar(&in.ApprovedAmount, "amount", "", "approved amount (approve only)")
	f.StringVar(&in.Remarks, "remarks", "", "remarks recorded with the decision")
	return decideCmd
}

func decision(in tui.DecisionInput) (portal.Decision, error) {
	outcome, ok := portal.ParseOutcome(strings.ToLower(strings.TrimSpace(in.Decision)))
	if !ok {
		return portal.Decision{}, errors.New(errors.ErrCodeAPIRequest, fmt.Sprintf("unknown decision: %s", in.Decision)).
			WithSuggestion("Use one of: approve, reject, request_info")
	}

	d := portal.Decision{Decision: outcome, Remarks: strings.TrimSpace(in.Remarks)}
	if in.ApprovedAmount != "" {
		if outcome != portal.Approve {
			return portal.Decision{}, errors.New(errors.ErrCodeAPIRequest, "--amount only applies to approve")
		}
		if err := tui.ValidateAmount(in.ApprovedAmount); err != nil {
			return portal.Decision{}, errors.Wrap(errors.ErrCodeAPIRequest, "invalid --amount", err)
		}
		v, _ := strconv.ParseFloat(strings.TrimSpace(in.ApprovedAmount), 64)
		d.ApprovedAmount = &v
	}
	return d, nil
}
