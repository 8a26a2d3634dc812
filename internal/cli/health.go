package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check API gateway health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.application()
			if err != nil {
				return err
			}
			resp, err := a.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(opts.out, resp)
		},
	}
}
