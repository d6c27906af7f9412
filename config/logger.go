package config

// Logger holds logging configuration.
type Logger struct {
	Level  string
	Format string
}

func getLogger(l *loader) *Logger {
	return &Logger{
		Level:  l.getString("LOGGING_LEVEL", "info"),
		Format: l.getString("LOGGING_FORMAT", "json"),
	}
}
