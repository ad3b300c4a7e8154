package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newVersionCmd(cc *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cc.Format == "" {
				cc.Format = "text"
			}
			info := versionInfo()
			return cc.Output(view{data: info, text: func(w io.Writer) error {
				_, err := fmt.Fprintln(w, info.String())
				return err
			}})
		},
	}
}
