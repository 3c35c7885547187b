package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stemsi/qbank-backend/internal/repository"
	"github.com/stemsi/qbank-backend/internal/service"
)

func newRecomputeScoresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute-scores",
		Short: "Recompute every active question score and author reputation once",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			scores := service.NewScoreService(repository.NewScoreRepository(e.pool), repository.NewUserRepository(e.pool), e.log)
			res, err := scores.Sweep(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Recomputed %d questions (%d failed), %d authors\n", res.Questions, res.Failed, res.Authors)
			return nil
		},
	}
}
