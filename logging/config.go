package logging

// Config is the "logging" extension of projsync.yml. PROJSYNC_LOG_LEVEL and
// PROJSYNC_LOG_CALLER=true take precedence over Level and ReportCaller.
type Config struct {
	Level        string         `yaml:"level"`
	ReportCaller bool           `yaml:"report_caller"`
	File         FileSinkConfig `yaml:"file"`
	Format       FormatConfig   `yaml:"format"`
}

// FileSinkConfig adds a log file next to the console output.
type FileSinkConfig struct {
	Enabled bool `yaml:"enabled"`
	// Empty means <state dir>/logs/<component>-<date>.log.
	Path string `yaml:"path"`
	// "text" or "json".
	Format string `yaml:"format,omitempty"`
}

// FormatConfig selects how console lines look.
type FormatConfig struct {
	// "default", "simple" or "json".
	Preset           string `yaml:"preset"`
	DisableTimestamp bool   `yaml:"disable_timestamp"`
	DisableComponent bool   `yaml:"disable_component"`
	// "auto", "always" or "never". Auto writes to stderr at debug level, with
	// PROJSYNC_DEBUG=1, or when stderr is not a terminal.
	StructuredToStderr string `yaml:"structured_to_stderr"`
}
