package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewCalendarsCmd creates the calendars command
func NewCalendarsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendars",
		Short: "List calendars on the remote CalDAV account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			gateway, err := newGateway(cfg)
			if err != nil {
				return err
			}

			names, err := gateway.ListCalendars(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list calendars: %w", err)
			}

			if len(names) == 0 {
				fmt.Println("No calendars found")
				return nil
			}

			fmt.Println("Calendars:")
			for _, name := range names {
				marker := " "
				if name == cfg.CalDAVCalendar {
					marker = "*"
				}
				fmt.Printf("  %s %s\n", marker, name)
			}

			return nil
		},
	}

	return cmd
}
