package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"veracity/pkg/domain"
)

func newHistoryCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "history <content-id>",
		Short: "Show the full modification history of a content record",
		Long:  "Reads the record's modification count, then fetches every history entry concurrently and prints them in index order.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentID, err := domain.ParseContentID(args[0])
			if err != nil {
				return err
			}
			return runHistory(cmd, contentID, concurrency)
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 8, "Maximum concurrent history fetches")

	return cmd
}

func runHistory(cmd *cobra.Command, contentID domain.ContentID, concurrency int) error {
	ctx := cmd.Context()
	c := newClient()

	var rec contentResponse
	if err := c.get(ctx, "/registry/content/"+contentID.String(), &rec); err != nil {
		return err
	}
	if rec.ModificationsCount == 0 {
		fmt.Println("No modifications recorded.")
		return nil
	}

	mods := make([]modificationResponse, rec.ModificationsCount)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	for i := 0; i < rec.ModificationsCount; i++ {
		group.Go(func() error {
			return c.get(groupCtx, fmt.Sprintf("/registry/content/%s/modifications/%d", contentID, i), &mods[i])
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for i, mod := range mods {
		fmt.Printf("[%d] %s\n", i, mod.ModifiedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Printf("    fingerprint: %s\n", mod.Fingerprint)
		fmt.Printf("    modified by: %s\n", mod.ModifiedBy)
		if mod.Description != "" {
			fmt.Printf("    description: %s\n", mod.Description)
		}
	}
	return nil
}
