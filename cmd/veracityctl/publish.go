package main

import (
	"github.com/spf13/cobra"
)

func newPublishCmd() *cobra.Command {
	var (
		fingerprint string
		contentType string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a content record",
		RunE: func(cmd *cobra.Command, args []string) error {
			var rec contentResponse
			err := newClient().post(cmd.Context(), "/registry/content", map[string]string{
				"fingerprint":  fingerprint,
				"content_type": contentType,
			}, &rec)
			if err != nil {
				return err
			}
			return printJSON(rec)
		},
	}

	cmd.Flags().StringVarP(&fingerprint, "fingerprint", "f", "", "Content fingerprint, e.g. a sha256 digest (required)")
	cmd.Flags().StringVarP(&contentType, "type", "T", "article", "Content type label")
	_ = cmd.MarkFlagRequired("fingerprint")

	return cmd
}
