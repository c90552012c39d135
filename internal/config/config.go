// Package config implements the CLI's ambient settings layer: built-in
// defaults overlaid by an optional local ".tabulua.yml" settings file,
// overlaid by command-line flags. It never affects package/data semantics
// (§4.H's Manifest is an unrelated, on-disk TSV format); this is purely
// the `cmd/tabulua` collaborator's own configuration.
package config

// Config is the CLI's resolved settings.
type Config struct {
	FileFormats []string `yaml:"fileFormats"`
	DataFormat  string   `yaml:"dataFormat"`
	ExportDir   string   `yaml:"exportDir"`
	LogLevel    string   `yaml:"logLevel"`
}

// DefaultConfig constructs a Config with the CLI's built-in defaults.
func DefaultConfig() Config {
	return Config{
		DataFormat: "tsv",
		LogLevel:   "info",
	}
}

// Apply overrides the base config's values with any non-zero values from
// overlay, a shallow field-by-field merge.
func (c *Config) Apply(overlay Config) {
	if len(overlay.FileFormats) > 0 {
		c.FileFormats = overlay.FileFormats
	}
	if overlay.DataFormat != "" {
		c.DataFormat = overlay.DataFormat
	}
	if overlay.ExportDir != "" {
		c.ExportDir = overlay.ExportDir
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
}
