// Package command provides the qcctl command definitions.
//
// The session stack (token store, credential provider, scoped and direct
// clients) is opened on first use by a command action and released in After,
// so help and version output never touch the store.
package command

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/samvad-hq/inspectra/internal/app"
	"github.com/samvad-hq/inspectra/internal/config"
	"github.com/samvad-hq/inspectra/internal/logger"
	"github.com/samvad-hq/inspectra/internal/storage"
	"github.com/samvad-hq/inspectra/pkg/httpclient"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const sessionKey = "session"

// App creates the CLI application writing command output to stdout.
func App() *cli.App {
	return NewApp(os.Stdout, os.Stderr)
}

// NewApp creates the CLI application with explicit output streams.
func NewApp(stdout, stderr io.Writer) *cli.App {
	app := &cli.App{
		Name:      "qcctl",
		Usage:     "Quality-control backend command-line client",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     globalFlags(),
		Commands: []*cli.Command{
			LoginCommand(),
			LogoutCommand(),
			WhoamiCommand(),
			TokenCommand(),
			GetCommand(),
			HealthCommand(),
		},
		Before:   checkGlobalFlags,
		After:    closeSession,
		Metadata: map[string]any{},
	}
	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "api-root",
			Aliases: []string{"r"},
			Usage:   "Backend origin (e.g., http://localhost:5000)",
			EnvVars: []string{"API_ROOT"},
		},
		&cli.StringFlag{
			Name:    "store-path",
			Usage:   "bbolt file holding the session token",
			EnvVars: []string{"BBOLT_PATH"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, json, yaml",
			Value:   string(FormatText),
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Diagnostic log level on stderr",
			Value: "warn",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	APIRoot   string
	StorePath string
	Output    string
	LogLevel  string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		APIRoot:   c.String("api-root"),
		StorePath: c.String("store-path"),
		Output:    c.String("output"),
		LogLevel:  c.String("log-level"),
	}
}

func checkGlobalFlags(c *cli.Context) error {
	_, err := ParseFormat(ParseGlobalFlags(c).Output)
	return err
}

func openSession(c *cli.Context) (*app.Session, error) {
	flags := ParseGlobalFlags(c)
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if root := strings.TrimRight(strings.TrimSpace(flags.APIRoot), "/"); root != "" {
		cfg.APIRoot = root
	}
	if p := strings.TrimSpace(flags.StorePath); p != "" {
		cfg.BBoltPath = p
		cfg.StorageType = storage.TypeBBolt
	}

	sugar := logger.InitStderr(flags.LogLevel)
	session, err := app.OpenSession(cfg, logger.New(sugar), app.SessionOptions{Sugar: sugar})
	if err != nil {
		return nil, err
	}
	c.App.Metadata[sessionKey] = session
	return session, nil
}

func closeSession(c *cli.Context) error {
	session := GetSession(c)
	if session == nil {
		return nil
	}
	delete(c.App.Metadata, sessionKey)
	err := session.Close()
	_ = logger.Close()
	return err
}

// GetSession retrieves the session stack from context.
func GetSession(c *cli.Context) *app.Session {
	if s, ok := c.App.Metadata[sessionKey].(*app.Session); ok {
		return s
	}
	return nil
}

// requireSession returns the open session, opening it on first call.
func requireSession(c *cli.Context) (*app.Session, error) {
	if s := GetSession(c); s != nil {
		return s, nil
	}
	return openSession(c)
}

// explain turns client errors into operator-facing messages. A rejected
// session exits with code 3 so scripts can trigger a re-login.
func explain(action string, err error) error {
	switch {
	case err == nil:
		return nil
	case httpclient.IsUnauthorized(err):
		return cli.Exit(fmt.Sprintf("%s: not signed in or session expired; run `qcctl login`", action), 3)
	case httpclient.IsTimeout(err):
		return cli.Exit(fmt.Sprintf("%s: backend did not answer in time", action), 4)
	case httpclient.IsTransport(err):
		return cli.Exit(fmt.Sprintf("%s: backend unreachable: %v", action, err), 4)
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}
