package cli

import (
	"github.com/spf13/cobra"

	"github.com/hireloop/hireloop-web/internal/model"
	"github.com/hireloop/hireloop-web/internal/output"
)

func (a *App) notificationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notes"},
		Short:   "List your notifications",
		Args:    cobra.NoArgs,
		RunE: a.as("", func(cmd *cobra.Command, _ []string) error {
			feed, err := a.session.Notifications().List(cmd.Context())
			if err != nil {
				return err
			}
			return a.renderFeed(feed)
		}),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "read <notification-id>",
			Short: "Mark a notification as read",
			Args:  cobra.ExactArgs(1),
			RunE: a.as("", func(cmd *cobra.Command, args []string) error {
				feed, err := a.session.Notifications().MarkRead(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				a.printer.Success("Marked %s as read, %s left", args[0], formatCount(feed.Unread, "unread notification"))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "read-all",
			Short: "Mark every notification as read",
			Args:  cobra.NoArgs,
			RunE: a.as("", func(cmd *cobra.Command, _ []string) error {
				if _, err := a.session.Notifications().MarkAllRead(cmd.Context()); err != nil {
					return err
				}
				a.printer.Success("All notifications marked as read")
				return nil
			}),
		},
	)
	return cmd
}

func (a *App) renderFeed(feed model.NotificationFeed) error {
	if len(feed.Items) == 0 {
		a.printer.Info("No notifications")
		return nil
	}

	table := output.NewTable(a.printer.Out(), "", "ID", "TITLE", "MESSAGE")
	for _, n := range feed.Items {
		table.AddRow(a.printer.Unread(n.IsRead), n.ID, a.printer.Bold(n.Title), n.Message)
	}
	if err := table.Render(); err != nil {
		return err
	}
	a.printer.Print("%s", formatCount(feed.Unread, "unread notification"))
	return nil
}
