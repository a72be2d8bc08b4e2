package main

import (
	"github.com/spf13/cobra"
)

func newRegisterCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register the token's identity as a content source",
		RunE: func(cmd *cobra.Command, args []string) error {
			var src sourceResponse
			err := newClient().post(cmd.Context(), "/registry/sources", map[string]string{"name": name}, &src)
			if err != nil {
				return err
			}
			return printJSON(src)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Human-readable source name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
