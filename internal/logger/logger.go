package logger

import (
	"github.com/sirupsen/logrus"
)

// SetupLogger builds the process-wide JSON logger. Unknown levels fall
// back to info rather than failing startup.
func SetupLogger(logLevel string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}
