package main

import (
	"github.com/spf13/cobra"

	"veracity/pkg/domain"
)

func newContentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Inspect published content records",
	}
	cmd.AddCommand(newContentGetCmd(), newContentListCmd())
	return cmd
}

func newContentGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <content-id>",
		Short: "Fetch a content record by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentID, err := domain.ParseContentID(args[0])
			if err != nil {
				return err
			}
			var rec contentResponse
			if err := newClient().get(cmd.Context(), "/registry/content/"+contentID.String(), &rec); err != nil {
				return err
			}
			return printJSON(rec)
		},
	}
}

func newContentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <identity>",
		Short: "List the content ids published by an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := domain.ParseIdentity(args[0])
			if err != nil {
				return err
			}
			var resp contentListResponse
			if err := newClient().get(cmd.Context(), "/registry/sources/"+identity.String()+"/content", &resp); err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
}
