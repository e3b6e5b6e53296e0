// Package log sets up the process-wide structured logger.
package log

import (
	"log/slog"
	"os"

	gormlogger "gorm.io/gorm/logger"
)

var gormLevel = gormlogger.Warn

// SetupGlobalLogger installs a slog.TextHandler at the given level as the
// default logger for the process.
func SetupGlobalLogger(level slog.Level) {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// SetGormLogLevel records the GORM log level to use when the DB instance is
// constructed; dbcore reads this at init time.
func SetGormLogLevel(level gormlogger.LogLevel) {
	gormLevel = level
}

// GormLogLevel returns the level set by SetGormLogLevel.
func GormLogLevel() gormlogger.LogLevel {
	return gormLevel
}
