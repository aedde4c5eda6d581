package types

import "time"

// HTTPConfig holds shared HTTP settings used by every client that talks to
// the extraction service.
type HTTPConfig struct {
	// Timeout bounds each request, including upload and response body.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "signage-review/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the number of retries on 429/503 responses (default 3).
	// Zero disables retries.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// ServerConfig locates the extraction service.
type ServerConfig struct {
	// URL is the base URL hosting /api/processar-pdf, /api/gerar-excel
	// and /api/health (default "http://localhost:8000").
	URL string `json:"url" yaml:"url" mapstructure:"url"`
}

// OutputConfig controls where exported files are written.
type OutputConfig struct {
	// Dir is the directory receiving sinalizacao.csv and sinalizacao.xlsx.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// CSVConfig controls CSV rendering.
type CSVConfig struct {
	// EscapeQuotes doubles embedded quote characters (RFC 4180). Off by
	// default so the output matches the historical format byte for byte.
	EscapeQuotes bool `json:"escape_quotes" yaml:"escape_quotes" mapstructure:"escape_quotes"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json (default text).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// WatchConfig holds settings for the drop folder.
type WatchConfig struct {
	// Dir is the directory watched for new PDF files.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Settle is how long a file must stay unchanged before it is dropped.
	Settle time.Duration `json:"settle" yaml:"settle" mapstructure:"settle"`

	// Spreadsheet requests an XLSX export after each successful extraction.
	Spreadsheet bool `json:"spreadsheet" yaml:"spreadsheet" mapstructure:"spreadsheet"`
}

// Config groups the settings of every workflow stage.
type Config struct {
	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`
	HTTP   HTTPConfig   `json:"http" yaml:"http" mapstructure:"http"`
	Output OutputConfig `json:"output" yaml:"output" mapstructure:"output"`
	CSV    CSVConfig    `json:"csv" yaml:"csv" mapstructure:"csv"`
	Log    LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
	Watch  WatchConfig  `json:"watch" yaml:"watch" mapstructure:"watch"`
}
