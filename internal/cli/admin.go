package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hireloop/hireloop-web/internal/model"
	"github.com/hireloop/hireloop-web/internal/output"
)

func (a *App) adminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Moderate users, listings and messages (admin role)",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "users",
			Short: "List users",
			Args:  cobra.NoArgs,
			RunE: a.as(model.RoleAdmin, func(cmd *cobra.Command, _ []string) error {
				users, err := a.session.Admin().Users(cmd.Context())
				if err != nil {
					return err
				}
				table := output.NewTable(a.printer.Out(), "ID", "NAME", "EMAIL", "ROLE")
				for _, u := range users {
					table.AddRow(u.ID, a.printer.Bold(u.Name), u.Email, string(u.Role))
				}
				return table.Render()
			}),
		},
		&cobra.Command{
			Use:   "jobs",
			Short: "List every job",
			Args:  cobra.NoArgs,
			RunE: a.as(model.RoleAdmin, func(cmd *cobra.Command, _ []string) error {
				jobs, err := a.session.Admin().Jobs(cmd.Context())
				if err != nil {
					return err
				}
				return a.renderJobs(jobs)
			}),
		},
		&cobra.Command{
			Use:   "contacts",
			Short: "List contact form messages",
			Args:  cobra.NoArgs,
			RunE: a.as(model.RoleAdmin, func(cmd *cobra.Command, _ []string) error {
				contacts, err := a.session.Admin().Contacts(cmd.Context())
				if err != nil {
					return err
				}
				table := output.NewTable(a.printer.Out(), "ID", "FROM", "SUBJECT", "MESSAGE")
				for _, c := range contacts {
					table.AddRow(c.ID, fmt.Sprintf("%s <%s>", c.Name, c.Email), orDash(c.Subject), c.Message)
				}
				return table.Render()
			}),
		},
		&cobra.Command{
			Use:   "reports",
			Short: "List user reports",
			Args:  cobra.NoArgs,
			RunE: a.as(model.RoleAdmin, func(cmd *cobra.Command, _ []string) error {
				reports, err := a.session.Admin().Reports(cmd.Context())
				if err != nil {
					return err
				}
				table := output.NewTable(a.printer.Out(), "ID", "REASON", "TARGET", "STATUS")
				for _, r := range reports {
					table.AddRow(r.ID, r.Reason, r.TargetType+" "+r.TargetID, orDash(r.Status))
				}
				return table.Render()
			}),
		},
		a.adminDeleteCommand(),
		a.adminBackupCommand(),
	)
	return cmd
}

func (a *App) adminDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "delete <user|job|contact> <id>",
		Short:     "Delete a user, job or contact message",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"user", "job", "contact"},
		RunE: a.as(model.RoleAdmin, func(cmd *cobra.Command, args []string) error {
			admin := a.session.Admin()
			var err error
			switch args[0] {
			case "user":
				err = admin.DeleteUser(cmd.Context(), args[1])
			case "job":
				err = admin.DeleteJob(cmd.Context(), args[1])
			case "contact":
				err = admin.DeleteContact(cmd.Context(), args[1])
			default:
				return &output.CLIError{
					Summary:  fmt.Sprintf("unknown kind %q", args[0]),
					Detail:   "expected user, job or contact",
					ExitCode: output.ExitUsageError,
				}
			}
			if err != nil {
				return err
			}
			a.printer.Success("Deleted %s %s", args[0], args[1])
			return nil
		}),
	}
}

func (a *App) adminBackupCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Download a backup of the marketplace data",
		Args:  cobra.NoArgs,
		RunE: a.as(model.RoleAdmin, func(cmd *cobra.Command, _ []string) error {
			var buf bytes.Buffer
			filename, err := a.session.Admin().ExportBackup(cmd.Context(), &buf)
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				path = filepath.Base(filename)
				if path == "." || path == string(filepath.Separator) {
					path = "backup.zip"
				}
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
				return fmt.Errorf("writing backup: %w", err)
			}
			a.printer.Success("Saved backup to %s (%d bytes)", path, buf.Len())
			return nil
		}),
	}

	cmd.Flags().StringVar(&out, "out", "", "output file (default: the server's filename)")
	return cmd
}
