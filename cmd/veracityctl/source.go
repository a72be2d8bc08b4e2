package main

import (
	"github.com/spf13/cobra"

	"veracity/pkg/domain"
)

func newSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Inspect registered sources",
	}
	cmd.AddCommand(newSourceGetCmd())
	return cmd
}

func newSourceGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <identity>",
		Short: "Fetch a registered source by identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := domain.ParseIdentity(args[0])
			if err != nil {
				return err
			}
			var src sourceResponse
			if err := newClient().get(cmd.Context(), "/registry/sources/"+identity.String(), &src); err != nil {
				return err
			}
			return printJSON(src)
		},
	}
}
