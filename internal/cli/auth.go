package cli

import (
	"bufio"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hireloop/hireloop-web/internal/model"
	"github.com/hireloop/hireloop-web/internal/output"
)

func (a *App) loginCommand() *cobra.Command {
	var (
		email    string
		password string
		role     string
		remember bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as a worker, employer or admin",
		Long: `Log in to the marketplace.

With --remember the login is saved and survives later jobctl runs. Without it the
login only lasts for this command. When --password is omitted it is read from
the first line of stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return &output.CLIError{Summary: "password is required", Suggestion: "Pass --password or pipe it on stdin", ExitCode: output.ExitUsageError}
				}
				password = strings.TrimRight(line, "\r\n")
			}

			if err := a.session.Login(cmd.Context(), email, password, model.Role(role), remember); err != nil {
				return err
			}

			identity, _ := a.session.Identity()
			a.printer.Success("Logged in as %s (%s)", identity.Name, identity.Role)
			if !remember {
				a.printer.Warning("Not remembered: this login ends when jobctl exits. Use --remember to stay logged in.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (read from stdin when omitted)")
	cmd.Flags().StringVar(&role, "role", string(model.RoleWorker), "role to log in as: worker, employer or admin")
	cmd.Flags().BoolVar(&remember, "remember", false, "keep the login for later runs")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *App) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.session.Logout(cmd.Context())
			a.printer.Success("Logged out")
			return nil
		},
	}
}

func (a *App) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: a.as("", func(cmd *cobra.Command, _ []string) error {
			identity, _ := a.session.Identity()

			table := output.NewTable(a.printer.Out(), "FIELD", "VALUE")
			table.AddRow("Name", a.printer.Bold(identity.Name))
			table.AddRow("Email", identity.Email)
			table.AddRow("Role", string(identity.Role))
			if identity.City != "" {
				table.AddRow("City", identity.City)
			}
			if len(identity.Skills) > 0 {
				table.AddRow("Skills", strings.Join(identity.Skills, ", "))
			}
			table.AddRow("Remembered", yesNo(a.session.Remembered()))
			return table.Render()
		}),
	}
}

func (a *App) registerCommand() *cobra.Command {
	var (
		req    model.RegisterRequest
		role   string
		skills []string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Role = model.Role(role)
			req.Skills = skills
			msg, err := a.session.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.printer.Success("%s", msg)
			a.printer.Info("Log in with: jobctl login --email %s --role %s", req.Email, req.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "password, at least 6 characters")
	cmd.Flags().StringVar(&role, "role", string(model.RoleWorker), "worker or employer")
	cmd.Flags().StringVar(&req.City, "city", "", "city")
	cmd.Flags().StringVar(&req.Pincode, "pincode", "", "postal code")
	cmd.Flags().StringSliceVar(&skills, "skills", nil, "comma-separated skills")
	return cmd
}

func (a *App) forgotPasswordCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msg, err := a.session.ForgotPassword(cmd.Context(), email)
			if err != nil {
				return err
			}
			a.printer.Success("%s", msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (a *App) resetPasswordCommand() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "reset-password <token>",
		Short: "Set a new password with a reset link token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.session.ResetPassword(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			a.printer.Success("%s", msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "new password, at least 6 characters")
	return cmd
}

func (a *App) contactCommand() *cobra.Command {
	var msg model.ContactMessage

	cmd := &cobra.Command{
		Use:   "contact <message>",
		Short: "Send a message to the marketplace team",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg.Message = strings.Join(args, " ")
			reply, err := a.session.SendContact(cmd.Context(), msg)
			if err != nil {
				return err
			}
			a.printer.Success("%s", reply)
			return nil
		},
	}

	cmd.Flags().StringVar(&msg.Name, "name", "", "your name")
	cmd.Flags().StringVar(&msg.Email, "email", "", "reply address")
	cmd.Flags().StringVar(&msg.Subject, "subject", "", "subject")
	return cmd
}
