package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"veracity/internal/token"
	"veracity/pkg/domain"
)

func newTokenCmd() *cobra.Command {
	var (
		signingKey string
		issuer     string
		audience   string
		expiresIn  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <identity>",
		Short: "Mint a bearer identity token",
		Long:  "Mints an identity JWT signed with the server's signing key. Meant for development and operations, not end users.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := domain.ParseIdentity(args[0])
			if err != nil {
				return err
			}
			if signingKey == "" {
				return fmt.Errorf("signing key is required (--signing-key or JWT_SIGNING_KEY)")
			}

			tok, err := token.NewService(signingKey, issuer, audience).GenerateIdentityToken(identity, expiresIn)
			if err != nil {
				return fmt.Errorf("minting token: %w", err)
			}
			fmt.Println(tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&signingKey, "signing-key", os.Getenv("JWT_SIGNING_KEY"), "JWT signing key shared with the server")
	cmd.Flags().StringVar(&issuer, "issuer", envDefault("JWT_ISSUER", "veracity"), "JWT issuer")
	cmd.Flags().StringVar(&audience, "audience", envDefault("JWT_AUDIENCE", "veracity-registry"), "JWT audience")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", time.Hour, "Token lifetime")

	return cmd
}
