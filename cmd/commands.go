package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

var errSaveSettings = errors.New("failed to save notification settings")

func newCheckCmd(c *cli) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one reminder sweep and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return c.print(a.reminder.Check(cmd.Context(), force))
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore the check interval")
	return cmd
}

func newSummaryCmd(c *cli) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print overdue, due today and upcoming maintenance",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if days <= 0 {
				days = a.settings.Get(cmd.Context()).DaysBeforeReminder
			}
			return c.print(a.queries.Summary(cmd.Context(), days))
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "upcoming window in days (default: configured reminder days)")
	return cmd
}

func newCompleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Complete a maintenance task and schedule its next occurrence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.lifecycle.Complete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(res)
		},
	}
}

func newSettingsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change notification settings",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return c.print(a.settings.Get(cmd.Context()))
		},
	}

	var s models.NotificationSettings
	set := &cobra.Command{
		Use:   "set",
		Short: "Change individual settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			current := a.settings.Get(cmd.Context())
			flags := cmd.Flags()
			if flags.Changed("enabled") {
				current.Enabled = s.Enabled
			}
			if flags.Changed("browser") {
				current.ShowBrowserNotifications = s.ShowBrowserNotifications
			}
			if flags.Changed("overdue") {
				current.NotifyOverdue = s.NotifyOverdue
			}
			if flags.Changed("today") {
				current.NotifyToday = s.NotifyToday
			}
			if flags.Changed("upcoming") {
				current.NotifyUpcoming = s.NotifyUpcoming
			}
			if flags.Changed("days") {
				current.DaysBeforeReminder = s.DaysBeforeReminder
			}
			if flags.Changed("interval") {
				current.CheckIntervalMinutes = s.CheckIntervalMinutes
			}
			if err := current.Validate(); err != nil {
				return err
			}
			if !a.settings.Save(cmd.Context(), current) {
				return errSaveSettings
			}
			return c.print(current)
		},
	}
	set.Flags().BoolVar(&s.Enabled, "enabled", true, "enable reminders")
	set.Flags().BoolVar(&s.ShowBrowserNotifications, "browser", true, "show platform notifications")
	set.Flags().BoolVar(&s.NotifyOverdue, "overdue", true, "remind about overdue tasks")
	set.Flags().BoolVar(&s.NotifyToday, "today", true, "remind about tasks due today")
	set.Flags().BoolVar(&s.NotifyUpcoming, "upcoming", true, "remind about upcoming tasks")
	set.Flags().IntVar(&s.DaysBeforeReminder, "days", models.DefaultDaysBeforeReminder, "days before due date to remind (1-30)")
	set.Flags().IntVar(&s.CheckIntervalMinutes, "interval", models.DefaultCheckIntervalMinutes, "minutes between sweeps (5-120)")

	cmd.AddCommand(get, set)
	return cmd
}

func newTokenCmd(c *cli) *cobra.Command {
	var userID, username, role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := auth.NewService(c.cfg.JWT.Secret, c.cfg.JWT.ExpiresIn)
			token, err := svc.GenerateToken(userID, username, models.Role(role))
			if err != nil {
				return err
			}
			return c.print(map[string]string{"token": token})
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "cli", "subject user id")
	cmd.Flags().StringVar(&username, "username", "cli", "subject username")
	cmd.Flags().StringVar(&role, "role", string(models.RoleOperator), "admin, manager, operator or viewer")
	return cmd
}
