package main

import (
	"encoding/json"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/authgate/authgate/internal/auth"
)

// NewTokenCmd creates the token subcommand.
func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Work with issued tokens",
	}
	cmd.AddCommand(newTokenInspectCmd())
	return cmd
}

type inspectOutput struct {
	UserID      string         `json:"userID"`
	UserType    string         `json:"userType"`
	IsAnonymous bool           `json:"is_anonymous"`
	IssuedAt    time.Time      `json:"issuedAt"`
	NotBefore   time.Time      `json:"notBefore"`
	ExpiresAt   time.Time      `json:"expiresAt"`
	Custom      map[string]any `json:"custom"`
}

func newTokenInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <token>",
		Short: "Verify a token with the configured secrets and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return oops.Code("CONFIG_INVALID").With("config", configFile).Wrap(err)
			}

			claims, err := auth.NewTokenService(signingKeys(cfg)).Validate(args[0])
			if err != nil {
				return oops.Code("TOKEN_INVALID").Wrap(err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(inspectOutput{
				UserID:      claims.SubjectID,
				UserType:    string(claims.ActorClass),
				IsAnonymous: claims.IsAnonymous,
				IssuedAt:    claims.IssuedAt.UTC(),
				NotBefore:   claims.NotBefore.UTC(),
				ExpiresAt:   claims.ExpiresAt.UTC(),
				Custom:      claims.Extra,
			})
		},
	}
}
