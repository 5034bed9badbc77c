// Package logging builds the process logger.
//
// stdout carries the MCP protocol, so logs always go to the writer given to
// New (stderr in the command).
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// EnvLevel names the environment variable read by LevelFromEnv.
const EnvLevel = "DEEPSIGHT_LOG_LEVEL"

// New returns a logger writing to w at level. Debug and trace levels use
// human-readable text with full timestamps; every other level writes JSON.
func New(level logrus.Level, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)

	if level >= logrus.DebugLevel {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

// LevelFromEnv returns the level named by DEEPSIGHT_LOG_LEVEL, or InfoLevel
// when it is unset or not a logrus level name. debug forces DebugLevel.
func LevelFromEnv(debug bool) logrus.Level {
	if debug {
		return logrus.DebugLevel
	}
	return ParseLevel(os.Getenv(EnvLevel))
}

// ParseLevel parses a logrus level name case-insensitively, falling back to
// InfoLevel.
func ParseLevel(s string) logrus.Level {
	level, err := logrus.ParseLevel(strings.TrimSpace(s))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
