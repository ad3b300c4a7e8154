package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kavach/internal/errors"
	"github.com/felixgeelhaar/kavach/internal/portal"
	"github.com/felixgeelhaar/kavach/internal/session"
)

func newFraudCmd(cc *CommandContext) *cobra.Command {
	fraudCmd := &cobra.Command{
		Use:   "fraud",
		Short: "Run and read fraud analysis (employees)",
		Long: `Trigger fraud analysis on a claim or read the latest result.

Examples:
  kavach fraud analyze C-1024
  kavach fraud result C-1024`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	fraudCmd.AddCommand(
		newFraudRunCmd(cc, "analyze", "Trigger fraud analysis", "Analyzing claim…", (*portal.Client).TriggerFraudAnalysis),
		newFraudRunCmd(cc, "result", "Show the latest fraud analysis", "Loading fraud analysis…", (*portal.Client).FraudResult),
	)
	return fraudCmd
}

type fraudCall func(c *portal.Client, ctx context.Context, claimID string) (*portal.FraudAnalysis, error)

func newFraudRunCmd(cc *CommandContext, use, short, busy string, call fraudCall) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <claim-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			claimID := args[0]
			if err := cc.RequireEmployee(ctx, session.ClaimPage(session.Employee, claimID)); err != nil {
				return err
			}

			a, err := withBusy(cc, busy, func() (*portal.FraudAnalysis, error) {
				return call(cc.Client, ctx, claimID)
			})
			if err != nil {
				return err
			}
			return cc.Output(view{data: a, text: func(w io.Writer) error {
				return fields(w,
					"Claim", firstNonEmpty(a.ClaimID, claimID),
					"Status", a.Status,
					"Risk score", percent(a.RiskScore),
					"Risk level", a.RiskLevel,
					"Indicators", list(a.Indicators),
					"Recommendation", a.Recommendation,
					"Analyzed", a.AnalyzedAt,
				)
			}})
		},
	}
}

func newHospitalCmd(cc *CommandContext) *cobra.Command {
	hospitalCmd := &cobra.Command{
		Use:   "hospital",
		Short: "Verify treating hospitals (employees)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var req portal.HospitalVerificationRequest
	verifyCmd := &cobra.Command{
		Use:   "verify <claim-id>",
		Short: "Check the hospital named on a claim against the registry",
		Long: `Check a hospital against the portal's registry. --name defaults to the
hospital recorded on the claim.

Examples:
  kavach hospital verify C-1024
  kavach hospital verify C-1024 --name "City Care Hospital" --registration MH-2291`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			claimID := args[0]
			if err := cc.RequireEmployee(ctx, session.ClaimPage(session.Employee, claimID)); err != nil {
				return err
			}

			if req.HospitalName == "" {
				claim, err := withBusy(cc, "Loading claim…", func() (*portal.Claim, error) {
					return cc.Client.Claim(ctx, claimID)
				})
				if err != nil {
					return err
				}
				if claim.HospitalName == "" {
					return errors.New(errors.ErrCodeAPIRequest, "the claim names no hospital").
						WithSuggestion("Pass --name")
				}
				req.HospitalName = claim.HospitalName
			}

			v, err := withBusy(cc, "Verifying hospital…", func() (*portal.HospitalVerification, error) {
				return cc.Client.VerifyHospital(ctx, claimID, req)
			})
			if err != nil {
				return err
			}
			return cc.Output(view{data: v, text: func(w io.Writer) error {
				return fields(w,
					"Hospital", firstNonEmpty(v.HospitalName, req.HospitalName),
					"Registration", v.RegistrationNumber,
					"Verified", yesNo(v.Verified),
					"Message", v.Message,
				)
			}})
		},
	}
	verifyCmd.Flags().StringVar(&req.HospitalName, "name", "", "hospital name")
	verifyCmd.Flags().StringVar(&req.RegistrationNumber, "registration", "", "hospital registration number")

	hospitalCmd.AddCommand(verifyCmd)
	return hospitalCmd
}

func newBiometricsCmd(cc *CommandContext) *cobra.Command {
	biometricsCmd := &cobra.Command{
		Use:   "biometrics",
		Short: "Compare faces and signatures",
		Long: `Compare two face photos or two signature images held by the portal.
Paths are locations on the verification service, not local files.

Examples:
  kavach biometrics face uploads/C-1024/selfie.jpg uploads/C-1024/id_card.jpg
  kavach biometrics signature uploads/C-1024/claim_form.png uploads/kyc/signature.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	faceCmd := &cobra.Command{
		Use:   "face <image1> <image2>",
		Short: "Check whether two photos show the same person",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := cc.RequireSession(ctx, ""); err != nil {
				return err
			}

			v, err := withBusy(cc, "Comparing faces…", func() (*portal.FaceVerification, error) {
				return cc.Client.VerifyFace(ctx, portal.FaceVerificationRequest{Image1Path: args[0], Image2Path: args[1]})
			})
			if err != nil {
				return err
			}
			return cc.Output(view{data: v, text: func(w io.Writer) error {
				return fields(w,
					"Match", yesNo(v.FaceMatch),
					"Similarity", percent(v.SimilarityScore),
					"Threshold", percent(v.Threshold),
					"Confidence", v.ConfidenceLevel,
					"Model", v.ModelUsed,
					"Detector", v.DetectorUsed,
					"Message", v.Message,
				)
			}})
		},
	}

	signatureCmd := &cobra.Command{
		Use:   "signature <signature1> <signature2>",
		Short: "Check whether two signatures match",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := cc.RequireSession(ctx, ""); err != nil {
				return err
			}

			v, err := withBusy(cc, "Comparing signatures…", func() (*portal.SignatureVerification, error) {
				return cc.Client.VerifySignature(ctx, portal.SignatureVerificationRequest{Signature1Path: args[0], Signature2Path: args[1]})
			})
			if err != nil {
				return err
			}
			return cc.Output(view{data: v, text: func(w io.Writer) error {
				return fields(w,
					"Match", yesNo(v.Match),
					"Similarity", percent(v.SimilarityScore),
					"Threshold", percent(v.Threshold),
					"Analysis", v.Analysis,
					"Message", v.Message,
				)
			}})
		},
	}

	biometricsCmd.AddCommand(faceCmd, signatureCmd)
	return biometricsCmd
}

func newHealthCmd(cc *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the portal backend",
		Long:  `Call the unauthenticated health endpoint. No session is needed.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := withBusy(cc, "Checking backend…", func() (*portal.Health, error) {
				return cc.Client.Health(ctx)
			})
			if err != nil {
				return err
			}
			return cc.Output(view{data: h, text: func(w io.Writer) error {
				threshold := ""
				if h.Threshold > 0 {
					threshold = fmt.Sprintf("%g", h.Threshold)
				}
				return fields(w,
					"API", cc.Registry.BaseURL(),
					"Status", h.Status,
					"Service", h.Service,
					"Model", h.Model,
					"Detector", h.Detector,
					"Threshold", threshold,
				)
			}})
		},
	}
}
