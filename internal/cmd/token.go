package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ridepool/internal/auth"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an admin bearer token",
	Long: `Mint an HS256 admin token signed with auth.hmac_secret, for use as
"Authorization: Bearer <token>" on /v1/admin endpoints.`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "ops", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
}

func runToken(cmd *cobra.Command, _ []string) error {
	if cfg.Auth.HMACSecret == "" {
		return errors.New("auth.hmac_secret is not set")
	}
	tok, err := auth.NewVerifier(cfg.Auth.HMACSecret).Issue(tokenSubject, auth.RoleAdmin, tokenTTL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
	return err
}
