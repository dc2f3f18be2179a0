package config

// Config is botcast's on-disk configuration. It accepts JSON or YAML; YAML
// is coerced to JSON so both formats go through the same strict decoder.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Storage  *StorageConfig `json:"storage,omitempty"`
	Paths    PathsConfig    `json:"paths"`
}

type TelegramConfig struct {
	Token string `json:"token"`

	// ParseMode is the default formatting mode for outbound text
	// ("", "HTML", "Markdown", "MarkdownV2").
	ParseMode string `json:"parse_mode,omitempty"`

	// RatePerSec caps outbound API calls per second. The Bot API enforces
	// global per-token limits; keeping our own budget below them avoids
	// most 429s before they happen.
	RatePerSec int `json:"rate_per_sec,omitempty"`

	// RequestTimeout is a Go duration string for the HTTP client timeout.
	RequestTimeout string `json:"request_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the optional session-history store.
//
// Driver values: "sqlite" or "none"/empty (disabled).
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string
}

type PathsConfig struct {
	// ReceivedLog is the append-only log of observed updates and outgoing
	// single sends. Recipient discovery parses it.
	ReceivedLog string `json:"received_log,omitempty"`
}
