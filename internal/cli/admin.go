package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newAdminCmd(opts *rootOptions) *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative gateway operations",
	}

	var confirmed bool
	clearCmd := &cobra.Command{
		Use:   "clear-cards",
		Short: "Delete every stored card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("refusing to clear cards without --yes")
			}
			a, err := opts.application()
			if err != nil {
				return err
			}
			resp, err := a.client.ClearCards(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(opts.out, resp)
		},
	}
	clearCmd.Flags().BoolVar(&confirmed, "yes", false, "confirm deletion")

	adminCmd.AddCommand(clearCmd)
	return adminCmd
}
