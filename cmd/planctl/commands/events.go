package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/plannerd/taskplanner/internal/caldav"
	"github.com/plannerd/taskplanner/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewEventsCmd creates the events command group
func NewEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect mirrored events on the remote calendar",
	}

	cmd.AddCommand(newEventsListCmd())
	cmd.AddCommand(newEventsDeleteCmd())
	return cmd
}

func newEventsListCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List remote events in the coming days",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			gateway, err := newGateway(cfg)
			if err != nil {
				return err
			}

			from := time.Now()
			to := from.AddDate(0, 0, days)
			events, err := gateway.ListEvents(context.Background(), from, to)
			if err != nil {
				return fmt.Errorf("failed to list events: %w", err)
			}

			if len(events) == 0 {
				fmt.Printf("No events in the next %d days\n", days)
				return nil
			}

			fmt.Printf("Events in calendar %q:\n", cfg.CalDAVCalendar)
			for _, ev := range events {
				fmt.Printf("  %s  %s - %s  %s\n",
					ev.UID,
					ev.Start.Local().Format("2006-01-02 15:04"),
					ev.End.Local().Format("15:04"),
					ev.Title,
				)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "How many days ahead to list")
	return cmd
}

// newEventsDeleteCmd removes a remote event by sync key. Deleting a task
// leaves its mirrored event in place, so operators use this for cleanup.
func newEventsDeleteCmd() *cobra.Command {
	var uid string
	var start string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a remote event by its sync key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if uid == "" {
				return fmt.Errorf("--uid is required")
			}
			startAt, err := time.Parse(time.RFC3339, start)
			if err != nil {
				return fmt.Errorf("--start must be RFC3339: %w", err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			gateway, err := newGateway(cfg)
			if err != nil {
				return err
			}

			removed, err := gateway.DeleteEvent(context.Background(), uid, startAt, startAt.Add(time.Hour))
			if err != nil {
				return fmt.Errorf("failed to delete event: %w", err)
			}
			if !removed {
				fmt.Printf("No event with sync key %s found near %s\n", uid, start)
				return nil
			}

			fmt.Printf("Deleted event %s\n", uid)
			return nil
		},
	}

	cmd.Flags().StringVar(&uid, "uid", "", "Sync key of the event to delete")
	cmd.Flags().StringVar(&start, "start", "", "Approximate event start (RFC3339), used to bound the lookup")
	return cmd
}

func newGateway(cfg *config.Config) (*caldav.Client, error) {
	if !cfg.CalDAVAvailable() {
		return nil, fmt.Errorf("CalDAV is not configured (set CALDAV_USERNAME and CALDAV_PASSWORD)")
	}
	return caldav.New(caldav.Config{
		Endpoint:     cfg.CalDAVURL,
		Username:     cfg.CalDAVUsername,
		Password:     cfg.CalDAVPassword,
		CalendarName: cfg.CalDAVCalendar,
	}, zap.NewNop()), nil
}
