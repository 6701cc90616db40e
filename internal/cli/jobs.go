package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/hireloop/hireloop-web/internal/model"
	"github.com/hireloop/hireloop-web/internal/output"
)

const dateLayout = "2006-01-02"

func (a *App) jobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Browse job listings",
	}
	cmd.AddCommand(a.jobsSearchCommand(), a.jobsShowCommand())
	return cmd
}

func (a *App) jobsSearchCommand() *cobra.Command {
	var query model.JobQuery

	cmd := &cobra.Command{
		Use:   "search [keywords]",
		Short: "Search open jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			query.Q = strings.Join(args, " ")
			page, err := a.session.Jobs().Search(cmd.Context(), query)
			if err != nil {
				return err
			}

			if len(page.Jobs) == 0 {
				a.printer.Info("No jobs found")
				return nil
			}

			if err := a.renderJobs(page.Jobs); err != nil {
				return err
			}
			if page.TotalPages > 1 {
				a.printer.Print("Page %d of %d (%s)", page.Page, page.TotalPages, formatCount(page.Total, "job"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&query.Location, "location", "", "filter by location")
	cmd.Flags().IntVar(&query.Page, "page", 1, "result page")
	cmd.Flags().IntVar(&query.Limit, "limit", 20, "results per page")
	return cmd
}

func (a *App) jobsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := a.session.Jobs().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			a.printer.Header(job.Title)
			table := output.NewTable(a.printer.Out(), "FIELD", "VALUE")
			table.AddRow("ID", job.ID)
			table.AddRow("Company", job.Company)
			table.AddRow("Location", job.Location)
			table.AddRow("Type", orDash(job.Type))
			table.AddRow("Salary", orDash(job.Salary))
			table.AddRow("Skills", orDash(strings.Join(job.Skills, ", ")))
			if err := table.Render(); err != nil {
				return err
			}
			if job.Description != "" {
				a.printer.Print("\n%s", job.Description)
			}
			return nil
		},
	}
}

func (a *App) renderJobs(jobs []model.Job) error {
	table := output.NewTable(a.printer.Out(), "ID", "TITLE", "COMPANY", "LOCATION", "STATUS")
	for _, j := range jobs {
		table.AddRow(j.ID, a.printer.Bold(j.Title), j.Company, j.Location, orDash(j.Status))
	}
	return table.Render()
}

func (a *App) applyCommand() *cobra.Command {
	var coverLetter string

	cmd := &cobra.Command{
		Use:   "apply <job-id>",
		Short: "Apply for a job",
		Args:  cobra.ExactArgs(1),
		RunE: a.as(model.RoleWorker, func(cmd *cobra.Command, args []string) error {
			applied, err := a.session.Applications().Apply(cmd.Context(), args[0], coverLetter)
			if err != nil {
				return err
			}
			a.printer.Success("Applied for %s (application %s)", orDash(applied.Title), applied.ID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&coverLetter, "cover", "", "cover letter")
	return cmd
}

func (a *App) applicationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "applications",
		Short: "List your job applications",
		Args:  cobra.NoArgs,
		RunE: a.as(model.RoleWorker, func(cmd *cobra.Command, _ []string) error {
			apps, err := a.session.Applications().Mine(cmd.Context())
			if err != nil {
				return err
			}
			if len(apps) == 0 {
				a.printer.Info("No applications yet")
				return nil
			}

			table := output.NewTable(a.printer.Out(), "ID", "JOB", "COMPANY", "STATUS", "APPLIED")
			for _, app := range apps {
				applied := "-"
				if !app.AppliedAt.IsZero() {
					applied = app.AppliedAt.Format(dateLayout)
				}
				table.AddRow(app.ID, orDash(app.Title), orDash(app.Company), a.printer.Status(app.Status), applied)
			}
			return table.Render()
		}),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "withdraw <application-id>",
		Short: "Withdraw an application",
		Args:  cobra.ExactArgs(1),
		RunE: a.as(model.RoleWorker, func(cmd *cobra.Command, args []string) error {
			if err := a.session.Applications().Withdraw(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printer.Success("Withdrew application %s", args[0])
			return nil
		}),
	})
	return cmd
}
