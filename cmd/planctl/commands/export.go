package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/plannerd/taskplanner/internal/database"
	"github.com/plannerd/taskplanner/internal/ics"
	"github.com/spf13/cobra"
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	var userID int64
	var limit int
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's upcoming tasks as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return fmt.Errorf("--user is required")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = cfg.ExportLimit
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			taskRepo := database.NewTaskRepository(db)
			tasks, err := taskRepo.ListUpcoming(context.Background(), userID, limit)
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}

			data, err := ics.Build(tasks)
			if err != nil {
				return fmt.Errorf("failed to build calendar: %w", err)
			}

			if out == "" {
				_, err = os.Stdout.Write(data)
				return err
			}

			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Printf("Wrote %d tasks to %s\n", len(tasks), out)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User id to export")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of tasks (defaults to EXPORT_LIMIT)")
	cmd.Flags().StringVar(&out, "out", "", "Output file (defaults to stdout)")
	return cmd
}
