package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Supported publisher types.
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
	TypeHTTP   = "http"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// configFile represents the structure of the publishers configuration file.
type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig is one sink declared in the publishers file. Exactly the
// block matching Type is read.
type PublisherConfig struct {
	ID      string               `json:"id" yaml:"id"`
	Type    string               `json:"type" yaml:"type"`
	Enabled *bool                `json:"enabled" yaml:"enabled"`
	Kinds   []string             `json:"kinds" yaml:"kinds"`
	SQS     *SQSPublisherConfig  `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig  `json:"sns" yaml:"sns"`
	PubSub  *GCPQueueConfig      `json:"pubsub" yaml:"pubsub"`
	HTTP    *HTTPPublisherConfig `json:"http" yaml:"http"`
}

// AWSCredentials are optional static keys; when absent the default AWS
// credential chain is used.
type AWSCredentials struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
}

// SQSPublisherConfig holds AWS SQS specific settings.
type SQSPublisherConfig struct {
	QueueURL    string          `json:"uri" yaml:"uri"`
	Region      string          `json:"region" yaml:"region"`
	Credentials *AWSCredentials `json:"credentials" yaml:"credentials"`
}

// SNSPublisherConfig holds AWS SNS specific settings.
type SNSPublisherConfig struct {
	TopicARN    string          `json:"topic_arn" yaml:"topic_arn"`
	Region      string          `json:"region" yaml:"region"`
	Credentials *AWSCredentials `json:"credentials" yaml:"credentials"`
}

// GCPQueueConfig holds Google Cloud Pub/Sub settings. CredentialsFile is
// optional; application default credentials apply otherwise.
type GCPQueueConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPPublisherConfig holds generic HTTP sink settings.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// ConfigRegistry is the validated content of a publishers file. It is
// read-only once loaded.
type ConfigRegistry struct {
	publishers []PublisherConfig
	idx        map[string]int
}

// LoadRegistry reads a YAML or JSON publishers file. The extension picks the
// decoder; an unknown extension tries YAML, then JSON.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var file configFile
	if err := decodeRegistryFile(raw, filepath.Ext(path), &file); err != nil {
		return nil, err
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{idx: make(map[string]int, len(file.Publishers))}
	for i, entry := range file.Publishers {
		cfg := sanitizePublisherConfig(entry)
		if err := validatePublisherConfig(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := reg.idx[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.idx[cfg.ID] = len(reg.publishers)
		reg.publishers = append(reg.publishers, cfg)
	}
	return reg, nil
}

func decodeRegistryFile(raw []byte, ext string, out *configFile) error {
	switch strings.ToLower(strings.TrimSpace(ext)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode yaml publishers: %w", err)
		}
		return nil
	case ".json":
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode json publishers: %w", err)
		}
		return nil
	}
	if yaml.Unmarshal(raw, out) == nil {
		return nil
	}
	*out = configFile{}
	if json.Unmarshal(raw, out) == nil {
		return nil
	}
	return errors.New("publishers file format not recognized (expected YAML or JSON)")
}

func sanitizePublisherConfig(cfg PublisherConfig) PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	cfg.Kinds = sanitizeKinds(cfg.Kinds)
	if cfg.Enabled == nil {
		on := true
		cfg.Enabled = &on
	}

	if q := cfg.SQS; q != nil {
		cfg.SQS = &SQSPublisherConfig{
			QueueURL:    strings.TrimSpace(q.QueueURL),
			Region:      strings.TrimSpace(q.Region),
			Credentials: sanitizeCredentials(q.Credentials),
		}
	}
	if t := cfg.SNS; t != nil {
		cfg.SNS = &SNSPublisherConfig{
			TopicARN:    strings.TrimSpace(t.TopicARN),
			Region:      strings.TrimSpace(t.Region),
			Credentials: sanitizeCredentials(t.Credentials),
		}
	}
	if g := cfg.PubSub; g != nil {
		cfg.PubSub = &GCPQueueConfig{
			ProjectID:       strings.TrimSpace(g.ProjectID),
			Topic:           strings.TrimSpace(g.Topic),
			CredentialsFile: strings.TrimSpace(g.CredentialsFile),
		}
	}
	if h := cfg.HTTP; h != nil {
		out := HTTPPublisherConfig{
			URL:            strings.TrimSpace(h.URL),
			Method:         strings.ToUpper(strings.TrimSpace(h.Method)),
			Headers:        trimHeaders(h.Headers),
			TimeoutSeconds: h.TimeoutSeconds,
		}
		if out.Method == "" {
			out.Method = httpDefaultMethod
		}
		if out.TimeoutSeconds <= 0 {
			out.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		cfg.HTTP = &out
	}
	return cfg
}

// trimHeaders drops entries whose name or value is blank.
func trimHeaders(in map[string]string) map[string]string {
	var out map[string]string
	for k, v := range in {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(in))
		}
		out[k] = v
	}
	return out
}

func sanitizeKinds(kinds []string) []string {
	var out []string
	for _, k := range kinds {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// sanitizeCredentials drops a credentials block without both keys.
func sanitizeCredentials(c *AWSCredentials) *AWSCredentials {
	if c == nil {
		return nil
	}
	out := AWSCredentials{
		AccessKeyID:     strings.TrimSpace(c.AccessKeyID),
		SecretAccessKey: strings.TrimSpace(c.SecretAccessKey),
		SessionToken:    strings.TrimSpace(c.SessionToken),
	}
	if out.AccessKeyID == "" || out.SecretAccessKey == "" {
		return nil
	}
	return &out
}

// requireFields returns an error naming the first blank field.
func requireFields(id string, fields ...[2]string) error {
	for _, f := range fields {
		if f[1] == "" {
			return fmt.Errorf("%s is required for publisher %q", f[0], id)
		}
	}
	return nil
}

func validatePublisherConfig(cfg PublisherConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if cfg.Type == "" {
		return fmt.Errorf("type is required for publisher %q", cfg.ID)
	}

	missing := func(block string) error {
		return fmt.Errorf("%s config required for publisher %q", block, cfg.ID)
	}
	switch cfg.Type {
	case TypeSQS:
		if cfg.SQS == nil {
			return missing("sqs")
		}
		return requireFields(cfg.ID, [2]string{"sqs.uri", cfg.SQS.QueueURL}, [2]string{"sqs.region", cfg.SQS.Region})
	case TypeSNS:
		if cfg.SNS == nil {
			return missing("sns")
		}
		return requireFields(cfg.ID, [2]string{"sns.topic_arn", cfg.SNS.TopicARN}, [2]string{"sns.region", cfg.SNS.Region})
	case TypePubSub:
		if cfg.PubSub == nil {
			return missing("pubsub")
		}
		return requireFields(cfg.ID, [2]string{"pubsub.project_id", cfg.PubSub.ProjectID}, [2]string{"pubsub.topic", cfg.PubSub.Topic})
	case TypeHTTP:
		if cfg.HTTP == nil {
			return missing("http")
		}
		return requireFields(cfg.ID, [2]string{"http.url", cfg.HTTP.URL})
	}
	return nil
}

// Accepts reports whether records of kind should go to this publisher. An
// empty Kinds list accepts everything.
func (cfg PublisherConfig) Accepts(kind string) bool {
	if len(cfg.Kinds) == 0 {
		return true
	}
	kind = strings.ToLower(strings.TrimSpace(kind))
	for _, k := range cfg.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// IsEnabled treats a missing flag as enabled.
func (cfg PublisherConfig) IsEnabled() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// ByID returns the publisher config by id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	i, ok := r.idx[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.publishers[i], true
}

// All returns a copy of every configured publisher in file order.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	return append([]PublisherConfig(nil), r.publishers...)
}

// Enabled returns the publishers switched on in the file.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	var out []PublisherConfig
	for _, cfg := range r.All() {
		if cfg.IsEnabled() {
			out = append(out, cfg)
		}
	}
	return out
}
