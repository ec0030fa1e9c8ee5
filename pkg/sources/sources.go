package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Package sources holds the sync source registry (YAML/JSON) and the fetchers
// that pull records for each source kind.

const (
	KindDefects     = "defects"
	KindInspections = "inspections"
)

type Source struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	Kind           string            `json:"kind" yaml:"kind"`
	Path           string            `json:"path" yaml:"path"`
	Query          map[string]string `json:"query" yaml:"query"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	RequestDelayMs int               `json:"request_delay_ms" yaml:"request_delay_ms"`
}

type registry struct {
	Sources []Source `json:"sources" yaml:"sources"`
}

var (
	regMu                 sync.RWMutex
	currentReg            registry
	sourcesIdx            map[string]Source
	defaultRequestDelayMs = 250
	defaultPaths          = map[string]string{
		KindDefects:     "/defects",
		KindInspections: "/inspections",
	}
)

// Sources returns a copy of the currently loaded registry.
func Sources() []Source {
	regMu.RLock()
	defer regMu.RUnlock()

	if len(currentReg.Sources) == 0 {
		return nil
	}

	out := make([]Source, len(currentReg.Sources))
	copy(out, currentReg.Sources)
	return out
}

// SourceByID returns the loaded source with the given id.
func SourceByID(id string) (Source, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Source{}, false
	}

	regMu.RLock()
	defer regMu.RUnlock()

	s, ok := sourcesIdx[id]
	return s, ok
}

// LoadSources replaces the registry with the contents of path.
func LoadSources(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("sources file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open sources file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read sources file: %w", err)
	}

	reg, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return err
	}
	if len(reg.Sources) == 0 {
		return errors.New("sources file contains no sources entries")
	}

	idx := make(map[string]Source, len(reg.Sources))
	for i := range reg.Sources {
		s := sanitizeSource(reg.Sources[i])
		if err := validateSource(s); err != nil {
			return fmt.Errorf("source[%d]: %w", i, err)
		}
		if _, exists := idx[s.ID]; exists {
			return fmt.Errorf("duplicate source id %q", s.ID)
		}
		reg.Sources[i] = s
		idx[s.ID] = s
	}

	regMu.Lock()
	currentReg = reg
	sourcesIdx = idx
	regMu.Unlock()

	return nil
}

type unmarshalFn func([]byte, any) error

func parseRegistry(data []byte, ext string) (registry, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg registry
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return registry{}, errors.New("sources file format not recognized (expected YAML or JSON)")
}

func sanitizeSource(s Source) Source {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
	s.Path = strings.TrimSpace(s.Path)

	if s.Name == "" {
		s.Name = s.ID
	}
	if s.Path == "" {
		s.Path = defaultPaths[s.Kind]
	}
	if s.Path != "" && !strings.HasPrefix(s.Path, "/") {
		s.Path = "/" + s.Path
	}
	if s.RequestDelayMs <= 0 {
		s.RequestDelayMs = defaultRequestDelayMs
	}
	return s
}

func validateSource(s Source) error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	if _, ok := defaultPaths[s.Kind]; !ok {
		return fmt.Errorf("kind %q is not supported for source %q", s.Kind, s.ID)
	}
	if s.Path == "" {
		return fmt.Errorf("path is required for source %q", s.ID)
	}
	return nil
}

// RequestDelay is the pause the syncer takes after fetching this source.
func (s Source) RequestDelay() time.Duration {
	if s.RequestDelayMs <= 0 {
		return time.Duration(defaultRequestDelayMs) * time.Millisecond
	}
	return time.Duration(s.RequestDelayMs) * time.Millisecond
}
