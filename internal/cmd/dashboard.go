package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kavach/internal/portal"
	"github.com/felixgeelhaar/kavach/internal/session"
	"github.com/felixgeelhaar/kavach/internal/ux"
)

func newDashboardCmd(cc *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show claim statistics and recent claims",
		Long: `Show the dashboard for the signed-in user: claim counts, amounts and the
most recent claims. Customers see their own claims; employees see the
review queue.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := cc.RequireSession(ctx, session.DashboardFor(cc.Session.CurrentCategory(ctx))); err != nil {
				return err
			}

			d, err := withBusy(cc, "Loading dashboard…", func() (*portal.Dashboard, error) {
				return cc.Client.Dashboard(ctx)
			})
			if err != nil {
				return err
			}
			return cc.Output(view{data: d, text: func(w io.Writer) error {
				return renderDashboard(w, d)
			}})
		},
	}
}

func renderDashboard(w io.Writer, d *portal.Dashboard) error {
	if d.User != nil {
		fmt.Fprintf(w, "Welcome, %s\n\n", d.User.DisplayName())
	}

	s := d.Stats
	pairs := []string{
		"Total claims", strconv.Itoa(s.TotalClaims),
		"Pending", strconv.Itoa(s.PendingClaims),
		"Approved", strconv.Itoa(s.ApprovedClaims),
		"Rejected", strconv.Itoa(s.RejectedClaims),
		"Claimed", amount(s.TotalClaimedAmount),
		"Approved amount", amount(s.TotalApprovedAmount),
	}
	if s.FlaggedClaims > 0 {
		pairs = append(pairs, "Flagged", strconv.Itoa(s.FlaggedClaims))
	}
	if err := fields(w, pairs...); err != nil {
		return err
	}

	if len(d.RecentClaims) > 0 {
		fmt.Fprintln(w, "\nRecent claims")
		return claimTable(w, d.RecentClaims)
	}
	return nil
}

func newPoliciesCmd(cc *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "List insurance policies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := cc.RequireSession(ctx, ""); err != nil {
				return err
			}

			policies, err := withBusy(cc, "Loading policies…", func() ([]portal.Policy, error) {
				return cc.Client.Policies(ctx)
			})
			if err != nil {
				return err
			}
			return cc.Output(view{data: policies, text: func(w io.Writer) error {
				if len(policies) == 0 {
					_, err := fmt.Fprintln(w, "No policies.")
					return err
				}
				rows := make([][]string, 0, len(policies))
				for _, p := range policies {
					rows = append(rows, []string{p.ID, p.PolicyNumber, p.PolicyType, amount(p.SumInsured), p.EndDate, p.Status})
				}
				return ux.Table(w, []string{"ID", "NUMBER", "TYPE", "SUM INSURED", "VALID UNTIL", "STATUS"}, rows)
			}})
		},
	}
}
