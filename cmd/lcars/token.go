package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"lcars-core/internal/config"
	"lcars-core/internal/pkg"

	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

func init() {
	cmdToken.Flags().StringVar(&tokenSubject, "subject", "renderer", "token subject")
	cmdToken.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (defaults to IPC_JWT_EXPIRY)")
	rootCmd.AddCommand(cmdToken)
}

var cmdToken = &cobra.Command{
	Use:   "token",
	Short: "Issue an IPC bearer token",
	Long:  `Signs a token with IPC_JWT_SECRET for clients of the websocket and HTTP IPC endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if cfg.JWTSecret == "" {
			return errors.New("IPC_JWT_SECRET is not set")
		}

		ttl := tokenTTL
		if ttl == 0 {
			ttl = cfg.JWTExpiry
		}

		token, err := pkg.IssueToken(cfg.JWTSecret, tokenSubject, ttl)
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, token)
		return nil
	},
}
