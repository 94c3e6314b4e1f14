package clog

import "log/slog"

// HTTPStatusToLevel picks the log level for a finished API request.
func HTTPStatusToLevel(status int) slog.Level {
	switch {
	case status >= 100 && status < 400:
		return slog.LevelDebug
	case status >= 400 && status < 500:
		return slog.LevelWarn
	case status >= 500:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}

// ParseLevel falls back to info on anything it does not understand.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
