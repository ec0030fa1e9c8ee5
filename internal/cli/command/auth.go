package command

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/samvad-hq/inspectra/internal/domain"
)

const commandTimeout = 30 * time.Second

type userView struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Email string `json:"email" yaml:"email"`
	Role  string `json:"role,omitempty" yaml:"role,omitempty"`
}

func newUserView(u domain.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (u userView) lines() []string {
	out := []string{fmt.Sprintf("ID:     %s", u.ID), fmt.Sprintf("Email:  %s", u.Email)}
	if u.Name != "" {
		out = append(out, fmt.Sprintf("Name:   %s", u.Name))
	}
	if u.Role != "" {
		out = append(out, fmt.Sprintf("Role:   %s", u.Role))
	}
	return out
}

// LoginCommand signs in and stores the returned token.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and store the session token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password (read from stdin when omitted)", EnvVars: []string{"QCCTL_PASSWORD"}},
		},
		Action: login,
	}
}

func login(c *cli.Context) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}

	password := c.String("password")
	if password == "" {
		fmt.Fprint(c.App.ErrWriter, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	ctx, cancel := context.WithTimeout(c.Context, commandTimeout)
	defer cancel()

	u, err := session.API.Auth.Login(ctx, c.String("email"), password)
	if err != nil {
		return explain("login", err)
	}
	return render(c, newUserView(u))
}

// LogoutCommand ends the session and clears the stored token.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Sign out and clear the stored token",
		Action: func(c *cli.Context) error {
			session, err := requireSession(c)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(c.Context, commandTimeout)
			defer cancel()
			if err := session.API.Auth.Logout(ctx); err != nil {
				return explain("logout", err)
			}
			fmt.Fprintln(c.App.Writer, "Signed out.")
			return nil
		},
	}
}

// WhoamiCommand prints the authenticated user.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed-in user",
		Action: func(c *cli.Context) error {
			session, err := requireSession(c)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(c.Context, commandTimeout)
			defer cancel()
			u, err := session.API.Auth.Me(ctx)
			if err != nil {
				return explain("whoami", err)
			}
			return render(c, newUserView(u))
		},
	}
}

type tokenView struct {
	State string `json:"state" yaml:"state"`
	Key   string `json:"key" yaml:"key"`
}

func (t tokenView) lines() []string {
	return []string{fmt.Sprintf("Token (%s): %s", t.Key, t.State)}
}

// TokenCommand reports whether a token is stored. The value is never printed.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Show whether a session token is stored",
		Action: func(c *cli.Context) error {
			session, err := requireSession(c)
			if err != nil {
				return err
			}
			state, err := session.Creds.State()
			if err != nil {
				return fmt.Errorf("read token state: %w", err)
			}
			return render(c, tokenView{State: state.String(), Key: session.Creds.Key()})
		},
	}
}
