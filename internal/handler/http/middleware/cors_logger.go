package middleware

import "log/slog"

// SlogAdapter bridges the CORSLogger interface onto a *slog.Logger,
// turning the field map into slog attributes.
type SlogAdapter struct {
	Logger *slog.Logger
}

func slogArgs(fields map[string]interface{}) []interface{} {
	args := make([]interface{}, 0, len(fields))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return args
}

// Info logs at info level.
func (a *SlogAdapter) Info(msg string, fields map[string]interface{}) {
	if fields == nil {
		a.Logger.Info(msg)
		return
	}
	a.Logger.Info(msg, slogArgs(fields)...)
}

// Warn logs at warn level.
func (a *SlogAdapter) Warn(msg string, fields map[string]interface{}) {
	if fields == nil {
		a.Logger.Warn(msg)
		return
	}
	a.Logger.Warn(msg, slogArgs(fields)...)
}

// Debug logs at debug level.
func (a *SlogAdapter) Debug(msg string, fields map[string]interface{}) {
	if fields == nil {
		a.Logger.Debug(msg)
		return
	}
	a.Logger.Debug(msg, slogArgs(fields)...)
}

// NoOpLogger discards everything. Used in tests and as a safe default.
type NoOpLogger struct{}

func (l *NoOpLogger) Info(msg string, fields map[string]interface{})  {}
func (l *NoOpLogger) Warn(msg string, fields map[string]interface{})  {}
func (l *NoOpLogger) Debug(msg string, fields map[string]interface{}) {}
