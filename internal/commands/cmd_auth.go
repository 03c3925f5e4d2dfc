package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/tasks/internal/core/account"
	"github.com/colonyops/tasks/internal/core/styles"
	"github.com/colonyops/tasks/internal/core/validate"
	"github.com/colonyops/tasks/internal/tasks"
)

// PasswordEnv supplies the password when stdin is not a terminal.
const PasswordEnv = "TASKS_PASSWORD"

type AuthCmd struct {
	flags *Flags
	svc   *tasks.Service

	username   string
	jsonOutput bool
}

// NewAuthCmd creates the account commands.
func NewAuthCmd(flags *Flags, svc *tasks.Service) *AuthCmd {
	return &AuthCmd{flags: flags, svc: svc}
}

// Register adds login, register, logout and whoami to the application.
func (cmd *AuthCmd) Register(app *cli.Command) *cli.Command {
	userFlag := &cli.StringFlag{
		Name:        "username",
		Aliases:     []string{"u"},
		Usage:       "account username",
		Destination: &cmd.username,
	}

	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "login",
			Usage:     "Sign in to the sync service",
			UsageText: "tasks login [--username <name>]",
			Description: `Prompts for credentials and stores the issued token. When stdin is not a
terminal, --username and the ` + PasswordEnv + ` environment variable are required.`,
			Flags: []cli.Flag{userFlag},
			Action: func(ctx context.Context, c *cli.Command) error {
				return cmd.authenticate(ctx, c, false)
			},
		},
		&cli.Command{
			Name:      "register",
			Usage:     "Create an account on the sync service",
			UsageText: "tasks register [--username <name>]",
			Flags:     []cli.Flag{userFlag},
			Action: func(ctx context.Context, c *cli.Command) error {
				return cmd.authenticate(ctx, c, true)
			},
		},
		&cli.Command{
			Name:      "logout",
			Usage:     "Remove the stored token",
			UsageText: "tasks logout",
			Action:    cmd.runLogout,
		},
		&cli.Command{
			Name:      "whoami",
			Usage:     "Show the signed-in user",
			UsageText: "tasks whoami [--json]",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:        "json",
					Usage:       "output as JSON",
					Destination: &cmd.jsonOutput,
				},
			},
			Action: cmd.runWhoami,
		},
	)

	return app
}

func (cmd *AuthCmd) authenticate(ctx context.Context, c *cli.Command, register bool) error {
	username, password, err := cmd.credentials(ctx)
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}

	u, err := cmd.svc.Authenticate(ctx, username, password, register)
	if err != nil {
		return err
	}

	verb := "Logged in as"
	if register {
		verb = "Registered"
	}
	success(c.Root().Writer, "%s %s", verb, u.Username)
	return nil
}

// credentials prompts for whatever was not supplied through flags or the
// environment.
func (cmd *AuthCmd) credentials(ctx context.Context) (string, string, error) {
	username := strings.TrimSpace(cmd.username)
	password := os.Getenv(PasswordEnv)
	if username != "" && password != "" {
		if err := validate.Username(username); err != nil {
			return "", "", err
		}
		return username, password, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", "", fmt.Errorf("stdin is not a terminal: pass --username and set %s", PasswordEnv)
	}

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Validate(func(s string) error { return validate.Username(strings.TrimSpace(s)) }).
				Value(&username),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Validate(validate.Password).
				Value(&password),
		),
	).WithTheme(styles.FormTheme()).RunWithContext(ctx)
	if err != nil {
		return "", "", err
	}

	return strings.TrimSpace(username), password, nil
}

func (cmd *AuthCmd) runLogout(ctx context.Context, c *cli.Command) error {
	if err := cmd.svc.LogOut(ctx); err != nil {
		return fmt.Errorf("log out: %w", err)
	}
	success(c.Root().Writer, "Logged out")
	return nil
}

func (cmd *AuthCmd) runWhoami(ctx context.Context, c *cli.Command) error {
	u, err := cmd.svc.Users.Current(ctx)
	if errors.Is(err, account.ErrNotLoggedIn) {
		_, _ = fmt.Fprintln(c.Root().ErrWriter, "not logged in")
		return cli.Exit("", 1)
	}
	if err != nil {
		return err
	}

	if wantJSON(c, cmd.jsonOutput) {
		return writeLines(c.Root().Writer, []account.User{u})
	}
	_, _ = fmt.Fprintln(c.Root().Writer, u.Username)
	return nil
}
