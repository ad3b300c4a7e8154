package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kavach/internal/errors"
	"github.com/felixgeelhaar/kavach/internal/health"
	"github.com/felixgeelhaar/kavach/internal/ux"
)

func newDoctorCmd(cc *CommandContext) *cobra.Command {
	var timeout time.Duration

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the portal connection and local session",
		Long: `Check that the portal answers, that the session store can be read with
the configured passphrase, and that a stored token has not expired.

Exits non-zero when any check is unhealthy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			m := health.NewManager().WithTimeout(timeout)
			m.AddChecker(health.NewPortalChecker(func(ctx context.Context) (string, error) {
				h, err := cc.Client.Health(ctx)
				if err != nil {
					return "", err
				}
				return h.Status, nil
			}))
			m.AddChecker(health.NewStoreChecker(cc.Store))
			m.AddChecker(health.NewTokenChecker(cc.Session, nil))

			report, _ := withBusy(cc, "Running checks…", func() (health.Report, error) {
				return m.Check(ctx), nil
			})

			if err := cc.Output(view{data: report, text: func(w io.Writer) error {
				rows := make([][]string, 0, len(report.Results))
				for _, r := range report.Results {
					rows = append(rows, []string{r.Name, r.Status.String(), r.Message, r.Latency.Round(time.Millisecond).String()})
				}
				if err := ux.Table(w, []string{"CHECK", "STATUS", "MESSAGE", "LATENCY"}, rows); err != nil {
					return err
				}
				_, err := fmt.Fprintf(w, "\nOverall: %s\n", report.Status)
				return err
			}}); err != nil {
				return err
			}

			if report.Status == health.StatusUnhealthy {
				return errors.New(errors.ErrCodeNetTransport, "one or more checks are unhealthy").
					WithSuggestion("Run 'kavach doctor --verbose' for details")
			}
			return nil
		},
	}

	doctorCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "timeout per check")
	return doctorCmd
}
