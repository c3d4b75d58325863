package logger

import (
	"os"

	"github.com/sirupsen/logrus"

	"storyquiz/internal/config"
)

// New builds the application logger: JSON in production, text elsewhere
func New(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if cfg.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if cfg.Debug {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)

	return log
}
