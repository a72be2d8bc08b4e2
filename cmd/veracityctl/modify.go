package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"veracity/pkg/domain"
)

func newModifyCmd() *cobra.Command {
	var (
		fingerprint string
		description string
	)

	cmd := &cobra.Command{
		Use:   "modify <content-id>",
		Short: "Record a modification to a content record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentID, err := domain.ParseContentID(args[0])
			if err != nil {
				return err
			}
			var resp modificationIndexResponse
			err = newClient().post(cmd.Context(), "/registry/content/"+contentID.String()+"/modifications", map[string]string{
				"fingerprint": fingerprint,
				"description": description,
			}, &resp)
			if err != nil {
				return err
			}
			fmt.Printf("recorded modification %d\n", resp.Index)
			return nil
		},
	}

	cmd.Flags().StringVarP(&fingerprint, "fingerprint", "f", "", "New content fingerprint (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "What changed")
	_ = cmd.MarkFlagRequired("fingerprint")

	return cmd
}
