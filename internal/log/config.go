package log

// Level is the lowest severity written to stderr.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format selects plain lines or one JSON object per record.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config is filled from settings.log_level and settings.log_format.
type Config struct {
	Level  Level  `mapstructure:"level"`
	Format Format `mapstructure:"format"`
}

func DefaultConfig() Config {
	return Config{
		Level:  LevelWarn,
		Format: FormatText,
	}
}
