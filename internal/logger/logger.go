// Package logger provides a wrapper around logrus for structured logging.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// environmentVar mirrors the config loader's env prefix so a container can
// force the production formatter without a config file.
const environmentVar = "QUANT_STOCK_ENVIRONMENT"

// NewLogger creates a logger configured from the log level string, taking
// the environment from QUANT_STOCK_ENVIRONMENT.
func NewLogger(logLevel string) *logrus.Logger {
	return NewLoggerForEnvironment(logLevel, os.Getenv(environmentVar))
}

// NewLoggerForEnvironment creates a logger for an explicit environment, as
// carried in the app config. Production and staging log JSON for ingestion;
// anything else gets colored text for a terminal.
func NewLoggerForEnvironment(logLevel, environment string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s', defaulting to info", logLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch environment {
	case "production", "staging":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	return logger
}
