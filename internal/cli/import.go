package cli

import (
	"fmt"
	"sort"

	"formula-trivia/internal/config"
	"formula-trivia/internal/domain"
	"formula-trivia/internal/infra/memory"
	"formula-trivia/internal/infra/postgres"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// NewImportCmd loads a YAML question pack into Postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import-questions",
		Short: "Import a YAML question pack into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			logger := cfg.Logger()

			pools, err := memory.LoadQuestionFile(file)
			if err != nil {
				return err
			}
			levels := lo.Keys(pools)
			sort.Ints(levels)
			questions := lo.FlatMap(levels, func(level int, _ int) []domain.Question { return pools[level] })

			db := openBunDB(cfg.Postgres.URL)
			defer db.Close()

			written, err := postgres.NewQuestionImporter(db).Import(cmd.Context(), questions)
			if err != nil {
				return err
			}
			logger.Info("questions imported", "file", file, "count", written, "levels", levels)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to the YAML question pack")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
