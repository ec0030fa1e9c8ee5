package command

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Format represents the output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates raw against the supported formats.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want text, json or yaml)", raw)
	}
}

// textLines renders a value in text mode.
type textLines interface {
	lines() []string
}

// render writes data in the format selected by --output.
func render(c *cli.Context, data any) error {
	format, err := ParseFormat(ParseGlobalFlags(c).Output)
	if err != nil {
		return err
	}
	return write(c.App.Writer, format, data)
}

func write(w io.Writer, format Format, data any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toYAMLValue(data)); err != nil {
			return err
		}
		return enc.Close()
	default:
		if tl, ok := data.(textLines); ok {
			for _, line := range tl.lines() {
				if _, err := fmt.Fprintln(w, line); err != nil {
					return err
				}
			}
			return nil
		}
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}
}

// toYAMLValue round-trips through JSON so YAML keys follow the json tags.
func toYAMLValue(data any) any {
	if raw, ok := data.(json.RawMessage); ok {
		var v any
		if json.Unmarshal(raw, &v) == nil {
			return v
		}
		return string(raw)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return data
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return data
	}
	return v
}
