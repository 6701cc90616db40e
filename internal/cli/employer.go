package cli

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hireloop/hireloop-web/internal/model"
	"github.com/hireloop/hireloop-web/internal/output"
	"github.com/hireloop/hireloop-web/internal/service"
)

func (a *App) employerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employer",
		Short: "Manage your listings and applicants (employer role)",
	}
	cmd.AddCommand(
		a.employerStatsCommand(),
		a.employerJobsCommand(),
		a.employerPostCommand(),
		a.employerDeleteCommand(),
		a.employerApplicantsCommand(),
		a.employerSetStatusCommand(),
	)
	return cmd
}

func (a *App) employerStatsCommand() *cobra.Command {
	var watch time.Duration

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show listing and application counters",
		Long: `Show listing and application counters.

With --watch the counters are refreshed on that interval until interrupted or the
session expires.`,
		Args: cobra.NoArgs,
		RunE: a.as(model.RoleEmployer, func(cmd *cobra.Command, _ []string) error {
			if watch <= 0 {
				stats, err := a.session.Employer().Stats(cmd.Context())
				if err != nil {
					return err
				}
				return a.renderStats(stats)
			}

			err := a.session.Employer().Poll(cmd.Context(), watch, func(stats model.EmployerStats, err error) {
				if err != nil {
					a.printer.Warning("refresh failed: %s", service.UserMessage(err))
					return
				}
				a.printer.Header("Stats at " + time.Now().Format(time.TimeOnly))
				if err := a.renderStats(stats); err != nil {
					a.printer.Warning("render failed: %v", err)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}),
	}

	cmd.Flags().DurationVar(&watch, "watch", 0, "refresh interval, e.g. 30s")
	return cmd
}

func (a *App) renderStats(stats model.EmployerStats) error {
	table := output.NewTable(a.printer.Out(), "METRIC", "COUNT")
	table.AddRow("Total jobs", strconv.Itoa(stats.TotalJobs))
	table.AddRow("Active jobs", strconv.Itoa(stats.ActiveJobs))
	table.AddRow("Applications", strconv.Itoa(stats.TotalApplications))
	table.AddRow("New applications", strconv.Itoa(stats.NewApplications))
	return table.Render()
}

func (a *App) employerJobsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List your job postings",
		Args:  cobra.NoArgs,
		RunE: a.as(model.RoleEmployer, func(cmd *cobra.Command, _ []string) error {
			jobs, err := a.session.Jobs().Mine(cmd.Context())
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				a.printer.Info("No postings yet")
				return nil
			}
			return a.renderJobs(jobs)
		}),
	}
}

func (a *App) employerPostCommand() *cobra.Command {
	var in model.JobInput

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a new job",
		Args:  cobra.NoArgs,
		RunE: a.as(model.RoleEmployer, func(cmd *cobra.Command, _ []string) error {
			job, err := a.session.Jobs().Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			a.printer.Success("Posted %s (%s)", job.Title, job.ID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "job title")
	cmd.Flags().StringVar(&in.Company, "company", "", "company name")
	cmd.Flags().StringVar(&in.Location, "location", "", "job location")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().StringVar(&in.Salary, "salary", "", "salary")
	cmd.Flags().StringVar(&in.Type, "type", "", "employment type")
	cmd.Flags().StringSliceVar(&in.Skills, "skills", nil, "comma-separated skills")
	return cmd
}

func (a *App) employerDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <job-id>",
		Short: "Delete a job posting",
		Args:  cobra.ExactArgs(1),
		RunE: a.as(model.RoleEmployer, func(cmd *cobra.Command, args []string) error {
			if err := a.session.Jobs().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printer.Success("Deleted job %s", args[0])
			return nil
		}),
	}
}

func (a *App) employerApplicantsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "applicants <job-id>",
		Short: "List applications received for a job",
		Args:  cobra.ExactArgs(1),
		RunE: a.as(model.RoleEmployer, func(cmd *cobra.Command, args []string) error {
			apps, err := a.session.Applications().ForJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(apps) == 0 {
				a.printer.Info("No applications for %s", args[0])
				return nil
			}

			table := output.NewTable(a.printer.Out(), "ID", "APPLICANT", "EMAIL", "STATUS")
			for _, app := range apps {
				table.AddRow(app.ID, a.printer.Bold(app.Applicant.Name), orDash(app.Applicant.Email), a.printer.Status(app.Status))
			}
			return table.Render()
		}),
	}
}

func (a *App) employerSetStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <application-id> <status>",
		Short: "Move an application to applied, reviewed, shortlisted, rejected or hired",
		Args:  cobra.ExactArgs(2),
		RunE: a.as(model.RoleEmployer, func(cmd *cobra.Command, args []string) error {
			app, err := a.session.Applications().SetStatus(cmd.Context(), args[0], model.ApplicationStatus(args[1]))
			if err != nil {
				return err
			}
			a.printer.Success("Application %s is now %s", app.ID, a.printer.Status(app.Status))
			return nil
		}),
	}
}
