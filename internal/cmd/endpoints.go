package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kavach/internal/endpoint"
	"github.com/felixgeelhaar/kavach/internal/errors"
	"github.com/felixgeelhaar/kavach/internal/ux"
)

func newEndpointsCmd(cc *CommandContext) *cobra.Command {
	endpointsCmd := &cobra.Command{
		Use:   "endpoints",
		Short: "Inspect the endpoint registry",
		Long: `List the portal operations kavach calls, or check them against the
backend's OpenAPI document.

Examples:
  kavach endpoints list
  kavach endpoints verify --openapi ./openapi.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered endpoints with resolved URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eps := cc.Registry.Endpoints()
			return cc.Output(view{data: eps, text: func(w io.Writer) error {
				fmt.Fprintf(w, "Base URL: %s\n\n", cc.Registry.BaseURL())
				rows := make([][]string, 0, len(eps))
				for _, ep := range eps {
					auth := "session"
					if ep.Public {
						auth = "public"
					}
					rows = append(rows, []string{string(ep.Name), ep.Method, ep.Template, auth})
				}
				return ux.Table(w, []string{"NAME", "METHOD", "TEMPLATE", "AUTH"}, rows)
			}})
		},
	}

	var specPath string
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the registry against an OpenAPI document",
		Long: `Load an OpenAPI 3 document and report every registered endpoint whose
path or method it does not declare. Exits with code 4 when drift is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			contract, err := endpoint.LoadContract(ctx, specPath)
			if err != nil {
				return errors.Wrap(errors.ErrCodeFileUnmarshal, "failed to load contract", err).
					WithSuggestion("Check --openapi points at an OpenAPI 3 document")
			}

			findings := contract.Check(cc.Registry)
			if findings == nil {
				findings = []endpoint.Finding{}
			}
			if err := cc.Output(view{data: findings, text: func(w io.Writer) error {
				if len(findings) == 0 {
					_, err := fmt.Fprintf(w, "All %d endpoints are declared in %s.\n", len(cc.Registry.Endpoints()), specPath)
					return err
				}
				rows := make([][]string, 0, len(findings))
				for _, f := range findings {
					rows = append(rows, []string{f.Code, string(f.Endpoint), f.Method, f.Path})
				}
				return ux.Table(w, []string{"FINDING", "ENDPOINT", "METHOD", "PATH"}, rows)
			}}); err != nil {
				return err
			}

			if len(findings) > 0 {
				names := make([]string, len(findings))
				for i, f := range findings {
					names[i] = string(f.Endpoint)
				}
				return errors.New(errors.ErrCodeAPIContractDrift,
					fmt.Sprintf("%d endpoint(s) not in contract: %s", len(findings), strings.Join(names, ", ")))
			}
			return nil
		},
	}
	verifyCmd.Flags().StringVar(&specPath, "openapi", "", "path to the backend OpenAPI document")
	_ = verifyCmd.MarkFlagRequired("openapi")

	endpointsCmd.AddCommand(listCmd, verifyCmd)
	return endpointsCmd
}
