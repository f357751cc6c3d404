package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/brainhr/hrdesk/pkg/domain"
)

type loginOpts struct {
	role          string
	username      string
	employeeID    string
	passwordStdin bool
}

func newLoginCmd(app *cli) *cobra.Command {
	var opts loginOpts
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the back office",
		Long: "Sign in as an employee, manager or admin. The session cookie is kept in the\n" +
			"system keyring; role and username are remembered in the config file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runLogin(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.role, "role", "", "employee, manager or admin")
	cmd.Flags().StringVar(&opts.username, "username", "", "username")
	cmd.Flags().StringVar(&opts.employeeID, "employee-id", "", "employee ID (employees only)")
	cmd.Flags().BoolVar(&opts.passwordStdin, "password-stdin", false, "read the password from stdin and skip the form")
	return cmd
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

// loginForm asks for whatever the flags did not provide.
func loginForm(role *string, creds *domain.Credentials) *huh.Form {
	roleOpts := make([]huh.Option[string], 0, len(domain.RoleOrder))
	for _, r := range domain.RoleOrder {
		roleOpts = append(roleOpts, huh.NewOption(domain.Roles[r].Label, string(r)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Sign in as").
				Options(roleOpts...).
				Value(role),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Employee ID").
				Value(&creds.EmployeeID).
				Validate(validateRequired("Employee ID")),
		).WithHideFunc(func() bool {
			return !domain.Roles[domain.Role(*role)].NeedsEmployeeID
		}),
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&creds.Username).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&creds.Password).
				Validate(validateRequired("Password")),
		),
	)
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("empty password on stdin")
	}
	return pw, nil
}

func (app *cli) runLogin(cmd *cobra.Command, opts loginOpts) error {
	role := opts.role
	if role == "" {
		role = app.cfg.Role
	}
	creds := domain.Credentials{Username: opts.username, EmployeeID: opts.employeeID}
	if creds.Username == "" {
		creds.Username = app.cfg.Username
	}

	if opts.passwordStdin {
		pw, err := readPassword(cmd.InOrStdin())
		if err != nil {
			return err
		}
		creds.Password = pw
	} else if err := loginForm(&role, &creds).Run(); err != nil {
		return err
	}

	r, err := domain.ParseRole(role)
	if err != nil {
		return err
	}
	if creds.Username == "" {
		return errors.New("username is required")
	}
	if domain.Roles[r].NeedsEmployeeID && creds.EmployeeID == "" {
		return errors.New("employee ID is required to sign in as an employee")
	}
	if !domain.Roles[r].NeedsEmployeeID {
		creds.EmployeeID = ""
	}

	c, err := app.newClient("")
	if err != nil {
		return err
	}
	actor, err := c.Login(cmd.Context(), r, creds)
	if err != nil {
		return err
	}
	session := c.Session()
	if session == "" {
		return errors.New("login succeeded but the backend set no session cookie")
	}

	store, err := app.openStore()
	if err != nil {
		return err
	}
	if err := store.SaveSession(r, creds.Username, session); err != nil {
		return err
	}
	app.cfg.Role = string(r)
	app.cfg.Username = creds.Username
	if err := app.saveConfig(); err != nil {
		return err
	}

	// The login response carries no display name; /me does.
	if me, err := c.Me(cmd.Context(), r); err == nil {
		actor = me
	} else {
		app.logger.Warn("profile lookup failed", "role", r, "err", err)
	}

	app.logger.Info("signed in", "role", r, "username", actor.Username)
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", actor.DisplayName(), domain.Roles[r].Label)
	return nil
}

func newLogoutCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			c, role, err := app.sessionClient()
			if errors.Is(err, errNotSignedIn) {
				fmt.Fprintln(out, "Already logged out.")
				return nil
			}
			if err != nil {
				return err
			}

			// The backend call is best effort; the local session goes either way.
			if err := c.Logout(cmd.Context(), role); err != nil {
				app.logger.Warn("backend logout failed", "role", role, "err", err)
			}
			store, err := app.openStore()
			if err != nil {
				return err
			}
			if err := store.DeleteSession(role, app.cfg.Username); err != nil {
				return err
			}
			fmt.Fprintln(out, "Logged out.")
			return nil
		},
	}
}
