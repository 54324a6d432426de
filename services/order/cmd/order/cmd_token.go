package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/marketplace_admin/pkg/actor"
	"github.com/Skotchmaster/marketplace_admin/pkg/tokens"
)

var (
	tokenSubject string
	tokenRole    string
	tokenTTL     time.Duration
)

// order token: mint a bearer token for local testing against JWT_SECRET.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a signed access token for the given actor",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			return errors.New("missing required env JWT_SECRET")
		}
		role, err := actor.ParseRole(tokenRole)
		if err != nil {
			return err
		}
		if tokenSubject == "" {
			return errors.New("--sub is required")
		}

		tok, err := tokens.SignAccessToken(tokenSubject, role.String(), tokenTTL, []byte(secret))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "sub", "", "actor id (user, vendor or admin id)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "admin", "admin, vendor or customer")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
}
