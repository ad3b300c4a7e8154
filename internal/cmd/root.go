package cmd

import (
	"context"
	stderrors "errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kavach/internal/errors"
	"github.com/felixgeelhaar/kavach/internal/notify"
	"github.com/felixgeelhaar/kavach/internal/portal"
	"github.com/felixgeelhaar/kavach/internal/ux"
	"github.com/felixgeelhaar/kavach/internal/version"
)

var versionInfo = version.GetInfo

// newRootCmd builds the command tree around cc
func newRootCmd(cc *CommandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kavach",
		Short: "Kavach Setu claims portal client",
		Long: `kavach is a command-line client for the Kavach Setu insurance-claims portal.

Customers submit and follow claims; employees review documents, run fraud
analysis, verify hospitals and record decisions. The session token is kept
in an encrypted file (or Redis) between invocations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipSetup] == "true" {
				return nil
			}
			return cc.Setup(cmd.Context(), cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cc.ConfigPath, "config", "", "config file (default is $HOME/.kavach/config.yaml)")
	pf.StringVarP(&cc.Format, "format", "f", "", "output format: text, json or yaml (default from defaults.format)")
	pf.BoolVarP(&cc.Verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&cc.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&cc.Ephemeral, "ephemeral", false, "keep the session in memory for this invocation only")
	pf.BoolVar(&cc.MetricsDump, "metrics-dump", false, "write Prometheus metrics to stderr on exit")

	rootCmd.AddCommand(
		newAuthCmd(cc),
		newDashboardCmd(cc),
		newPoliciesCmd(cc),
		newClaimsCmd(cc),
		newDocumentsCmd(cc),
		newFraudCmd(cc),
		newHospitalCmd(cc),
		newBiometricsCmd(cc),
		newHealthCmd(cc),
		newDoctorCmd(cc),
		newEndpointsCmd(cc),
		newConfigCmd(cc),
		newVersionCmd(cc),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with a context for cancellation
func ExecuteContext(ctx context.Context) error {
	return run(ctx, NewCommandContext(), os.Args[1:])
}

func run(ctx context.Context, cc *CommandContext, args []string) error {
	rootCmd := newRootCmd(cc)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(cc.Out)
	rootCmd.SetErr(cc.ErrOut)
	rootCmd.SetIn(os.Stdin)

	err := ux.EnhanceError(rootCmd.ExecuteContext(ctx))
	if err != nil {
		if cc.Logger != nil {
			cc.Logger.LogErrorContext(ctx, "command failed", err)
		}
		if cc.Notifier != nil {
			if !announcedByGateway(err) {
				cc.Notifier.Announce(err.Error(), notify.Error)
			}
			err = &reportedError{err: err}
		}
	}
	cc.Finish(err)
	return err
}

// reportedError is a failure already shown through the notifier
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// Reported reports whether err was already shown to the user, so the
// caller should only set the exit code.
func Reported(err error) bool {
	var r *reportedError
	return stderrors.As(err, &r)
}

// announcedByGateway matches the "no result" of a 401, whose fixed
// message the gateway has announced already. A failed login is still
// announced so the user sees the reason.
func announcedByGateway(err error) bool {
	kerr, ok := asKavachError(err)
	return ok && kerr.Code == errors.ErrCodeAuthExpired && stderrors.Is(err, portal.ErrNoResult)
}

func asKavachError(err error) (*errors.KavachError, bool) {
	var kerr *errors.KavachError
	if stderrors.As(err, &kerr) {
		return kerr, true
	}
	return nil, false
}
