package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

const (
	// TokenEnv overrides telegram.token when set. Keeps credentials out of
	// config files that end up in dotfile repos.
	TokenEnv = "BOTCAST_TOKEN"

	defaultReceivedLog = "bot_logs/received_data.log"
	defaultRatePerSec  = 25
)

// Load reads, strictly decodes, and normalizes the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	jsonBytes, format, err := coerceToJSONBytes(path, data)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jsonBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s (%s): %w", path, format, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if tok := strings.TrimSpace(os.Getenv(TokenEnv)); tok != "" {
		c.Telegram.Token = tok
	}
	if c.Telegram.RatePerSec <= 0 {
		c.Telegram.RatePerSec = defaultRatePerSec
	}
	if strings.TrimSpace(c.Paths.ReceivedLog) == "" {
		c.Paths.ReceivedLog = defaultReceivedLog
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) validate() error {
	if _, err := ParseDurationField("telegram.request_timeout", c.Telegram.RequestTimeout); err != nil {
		return err
	}
	if c.Storage != nil {
		if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
			return err
		}
	}
	switch strings.ToLower(c.Telegram.ParseMode) {
	case "", "html", "markdown", "markdownv2":
	default:
		return fmt.Errorf("telegram.parse_mode: unknown mode %q", c.Telegram.ParseMode)
	}
	return nil
}

// RequestTimeout returns the parsed HTTP timeout with a sane default.
func (c *Config) RequestTimeout() time.Duration {
	d, err := ParseDurationField("telegram.request_timeout", c.Telegram.RequestTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// BusyTimeout returns the parsed sqlite busy timeout (0 when unset).
func (c *Config) BusyTimeout() time.Duration {
	if c.Storage == nil {
		return 0
	}
	d, _ := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout)
	return d
}

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

// coerceToJSONBytes converts YAML config to JSON bytes so the strict JSON
// decoder (DisallowUnknownFields) covers both formats.
func coerceToJSONBytes(path string, data []byte) ([]byte, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return data, "json", nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, "yaml", fmt.Errorf("yaml unmarshal: %w", err)
	}
	v = normalizeYAML(v)

	j, err := json.Marshal(v)
	if err != nil {
		return nil, "yaml", fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, "yaml", nil
}

// normalizeYAML ensures all map keys are strings so the result can be
// JSON-marshaled.
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		for k, v := range x {
			x[k] = normalizeYAML(v)
		}
		return x
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}
