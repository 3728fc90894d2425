package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/persistorai/mindmap/internal/config"
)

// Rotation limits for LOG_FILE.
const (
	logMaxSizeMB  = 100
	logMaxBackups = 5
	logMaxAgeDays = 28
)

// newLogger builds the JSON logger. When cfg.LogFile is set, entries are
// written to stdout and to a rotated file. The returned func closes the file.
func newLogger(cfg *config.Config) (*logrus.Logger, func(), error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing log level: %w", err)
	}

	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	if cfg.LogFile == "" {
		return log, func() {}, nil
	}

	file := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
		Compress:   true,
	}

	log.SetOutput(io.MultiWriter(os.Stdout, file))

	return log, func() { _ = file.Close() }, nil
}
