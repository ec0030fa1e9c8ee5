package command

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/samvad-hq/inspectra/pkg/api"
	"github.com/samvad-hq/inspectra/pkg/httpclient"
)

const getUsage = "usage: qcctl get [--direct] [--query k=v] [--raw] <path>"

// GetCommand issues a raw GET through the scoped or direct client. Flags
// must precede the path.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "GET a backend path and print the response",
		ArgsUsage: "[--direct] [--query k=v] [--raw] <path>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "direct",
				Usage: "Resolve the path against the API root instead of the /api prefix",
			},
			&cli.StringSliceFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Query parameter as key=value (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Print the body as received, without unwrapping the envelope",
			},
		},
		Action: get,
	}
}

func get(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(getUsage, 2)
	}
	session, err := requireSession(c)
	if err != nil {
		return err
	}

	path := c.Args().First()
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	query, err := parseQuery(c.StringSlice("query"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	var client httpclient.Client = session.Clients.Scoped
	if c.Bool("direct") {
		client = session.Clients.Direct
	}

	ctx, cancel := context.WithTimeout(c.Context, commandTimeout)
	defer cancel()

	resp, err := client.Do(ctx, &httpclient.Request{Path: path, Query: query})
	if err != nil {
		return explain("GET "+path, err)
	}

	body := resp.Body()
	if c.Bool("raw") || !json.Valid(body) {
		_, err := c.App.Writer.Write(body)
		return err
	}

	var data json.RawMessage
	if err := api.DecodeEnvelope(body, &data); err != nil || len(data) == 0 {
		data = body
	}
	format, err := ParseFormat(ParseGlobalFlags(c).Output)
	if err != nil {
		return err
	}
	if format == FormatText {
		format = FormatJSON
	}
	return write(c.App.Writer, format, data)
}

func parseQuery(pairs []string) (url.Values, error) {
	q := url.Values{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid query %q (want key=value)", p)
		}
		q.Add(strings.TrimSpace(k), v)
	}
	return q, nil
}

type healthView struct {
	Status  string `json:"status" yaml:"status"`
	APIRoot string `json:"api_root" yaml:"api_root"`
}

func (h healthView) lines() []string {
	return []string{fmt.Sprintf("%s: %s", h.APIRoot, h.Status)}
}

// HealthCommand checks the backend health endpoint on the direct client.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check backend health",
		Action: func(c *cli.Context) error {
			session, err := requireSession(c)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(c.Context, commandTimeout)
			defer cancel()

			h, err := session.API.System.Health(ctx)
			if err != nil {
				return explain("health", err)
			}
			return render(c, healthView{Status: h.Status, APIRoot: session.Clients.Direct.BaseURL()})
		},
	}
}
