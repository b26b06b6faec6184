package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"math-quiz-service/internal/app"
	"math-quiz-service/internal/config"
	"math-quiz-service/internal/report"
)

// NewResetCmd wipes attempts, quizzes and question images.
func NewResetCmd(configPath *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all attempts, quizzes and question images",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to reset without --yes")
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			session, err := teacherSession(cfg)
			if err != nil {
				return err
			}
			b, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			dash, err := app.NewAdminService(b.quizzes, b.attempts, b.images).Reset(cmd.Context(), session)
			if err != nil {
				return err
			}
			log.Printf("reset done: %d quizzes, %d attempts remain", dash.Stats.QuizCount, dash.Stats.AttemptCount)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

// NewExportCmd writes the results workbook to a file.
func NewExportCmd(configPath *string) *cobra.Command {
	var (
		out    string
		quizID string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export results as an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			session, err := teacherSession(cfg)
			if err != nil {
				return err
			}
			b, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			dates := app.NewDateFormatter(cfg.Results.Locale, cfg.Location())
			results, err := app.NewResultsService(b.quizzes, b.attempts, dates).Results(cmd.Context(), session, quizID)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := report.WriteWorkbook(f, results); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			log.Printf("wrote %d result rows to %s", len(results.Rows), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "results.xlsx", "output file")
	cmd.Flags().StringVar(&quizID, "quiz", "", "only export attempts of this quiz")
	return cmd
}
