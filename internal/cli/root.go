// Package cli implements jobctl, the terminal client for the job marketplace.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hireloop/hireloop-web/internal/config"
	"github.com/hireloop/hireloop-web/internal/crypto"
	"github.com/hireloop/hireloop-web/internal/gateway"
	"github.com/hireloop/hireloop-web/internal/guard"
	"github.com/hireloop/hireloop-web/internal/model"
	"github.com/hireloop/hireloop-web/internal/output"
	"github.com/hireloop/hireloop-web/internal/repository"
	"github.com/hireloop/hireloop-web/internal/service"
)

// App holds the state shared by every jobctl command.
type App struct {
	stdout io.Writer
	stderr io.Writer

	verbose   bool
	colorMode string

	cfg     *config.CLIConfig
	printer *output.Printer
	logger  *slog.Logger
	session *service.Session
}

// Run executes jobctl with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := &App{stdout: stdout, stderr: stderr}

	root := app.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return output.ExitSuccess
	}

	printer := app.printer
	if printer == nil {
		printer = output.NewPrinter(stdout, stderr, output.ColorAuto)
	}
	cliErr := describe(err)
	printer.FormatError(cliErr)
	return cliErr.ExitCode
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "jobctl",
		Short: "Job marketplace terminal client",
		Long: `jobctl talks to the job marketplace API as a worker, employer or admin.

Remembered logins are kept sealed under JOBCTL_STATE_DIR. Without --remember a
login lasts only for the running command.

Example usage:
  jobctl login --email ann@example.com --role worker --remember
  jobctl jobs search welder --location Pune
  jobctl apply <job-id>
  jobctl employer stats --watch 30s`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().StringVar(&a.colorMode, "color", "auto", "color output: auto, always or never")

	root.AddCommand(
		a.loginCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.registerCommand(),
		a.forgotPasswordCommand(),
		a.resetPasswordCommand(),
		a.contactCommand(),
		a.jobsCommand(),
		a.applyCommand(),
		a.applicationsCommand(),
		a.notificationsCommand(),
		a.employerCommand(),
		a.adminCommand(),
	)
	return root
}

// setup loads the configuration and restores the saved session.
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	mode, err := output.ParseColorMode(a.colorMode)
	if err != nil {
		return &output.CLIError{Summary: err.Error(), ExitCode: output.ExitUsageError}
	}
	a.printer = output.NewPrinter(a.stdout, a.stderr, mode)

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	a.cfg, err = config.LoadCLI()
	if err != nil {
		return &output.CLIError{
			Summary:  "invalid configuration",
			Detail:   err.Error(),
			ExitCode: output.ExitUsageError,
		}
	}

	sealer, err := crypto.NewSealer(a.cfg.StorageSecret)
	if err != nil {
		return &output.CLIError{
			Summary:    "cannot derive the storage key",
			Detail:     err.Error(),
			Suggestion: "Set JOBCTL_STORAGE_SECRET",
			ExitCode:   output.ExitUsageError,
		}
	}

	durable := repository.NewSealedSlot(repository.NewFileSlot(a.cfg.CredentialsPath()), sealer)
	store := repository.NewCredentialStore(durable, repository.NewMemorySlot())
	a.session = service.NewSession(store, func(tokens gateway.TokenSource, onUnauthorized gateway.UnauthorizedFunc) *gateway.Gateway {
		return gateway.New(gateway.Config{
			BaseURL: a.cfg.APIBaseURL,
			Timeout: a.cfg.APITimeout,
			Logger:  a.logger,
		}, tokens, onUnauthorized)
	}, a.logger)

	if err := a.session.Restore(cmd.Context()); err != nil {
		return &output.CLIError{
			Summary:    "cannot read saved credentials",
			Detail:     err.Error(),
			Suggestion: "Check permissions on " + a.cfg.CredentialsPath(),
			ExitCode:   output.ExitGeneral,
		}
	}
	a.logger.Debug("session restored", "logged_in", a.session.IsLoggedIn(), "api", a.cfg.APIBaseURL)
	return nil
}

// as wraps run so it only executes for a session holding role. An empty role
// admits any logged-in user.
func (a *App) as(role model.Role, run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.authorize(role); err != nil {
			return err
		}
		return run(cmd, args)
	}
}

func (a *App) authorize(role model.Role) error {
	st := guard.State{Resolved: true, Token: a.session.Token()}
	if identity, ok := a.session.Identity(); ok {
		st.Identity = &identity
	}

	switch guard.Decide(st, role).Kind {
	case guard.Authorized:
		return nil
	case guard.RedirectLogin:
		return service.ErrNotLoggedIn
	}
	return &output.CLIError{
		Summary:    fmt.Sprintf("this command requires the %s role", role),
		Detail:     fmt.Sprintf("logged in as %s", st.Identity.Role),
		Suggestion: fmt.Sprintf("Run 'jobctl login --role %s'", role),
		ExitCode:   output.ExitAuthError,
	}
}

// describe turns a command error into the message and exit code shown to the user.
func describe(err error) *output.CLIError {
	var cliErr *output.CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &output.CLIError{Summary: "interrupted", ExitCode: output.ExitGeneral}
	case errors.Is(err, service.ErrNotLoggedIn), errors.Is(err, service.ErrUnauthorized):
		return &output.CLIError{
			Summary:    service.UserMessage(err),
			Suggestion: "Run 'jobctl login'",
			ExitCode:   output.ExitAuthError,
		}
	case errors.Is(err, service.ErrAuthentication):
		return &output.CLIError{Summary: service.UserMessage(err), ExitCode: output.ExitAuthError}
	case errors.Is(err, service.ErrValidation):
		return &output.CLIError{Summary: service.UserMessage(err), ExitCode: output.ExitUsageError}
	case errors.Is(err, service.ErrConnectivity):
		return &output.CLIError{
			Summary:    service.UserMessage(err),
			Detail:     err.Error(),
			Suggestion: "Check JOBCTL_API_BASE_URL and that the API is running",
			ExitCode:   output.ExitUnavailable,
		}
	}

	msg := service.UserMessage(err)
	if msg == "" {
		msg = err.Error()
	}
	return &output.CLIError{Summary: msg, ExitCode: output.ExitGeneral}
}
