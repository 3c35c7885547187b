package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stemsi/qbank-backend/internal/repository"
	"github.com/stemsi/qbank-backend/internal/service"
)

func newIssueTokenCmd() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Print a signed token for an existing user (development)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			users := service.NewUserService(repository.NewUserRepository(e.pool), service.NewAuthService(e.cfg))
			token, err := users.IssueToken(cmd.Context(), userID)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
