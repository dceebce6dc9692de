// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultFileName is the log file created in the temp directory when no
// file is configured.
const DefaultFileName = "battly-setup.log"

// Options configures Init.
type Options struct {
	Level string
	// File receives every entry at Level and above. "console" disables the
	// file and logs to Console instead.
	File string
	// Console, when set, also receives entries. It is typically os.Stderr
	// in verbose mode.
	Console io.Writer
}

// DefaultFile returns the default log file path.
func DefaultFile() string {
	return filepath.Join(os.TempDir(), DefaultFileName)
}

// Init parses the level and installs the outputs. The returned closer
// flushes the log file and must be called before exit.
func Init(opts Options) (io.Closer, error) {
	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		log.Errorf("failed parsing log-level %s: %s", opts.Level, err)
		return nil, err
	}

	var (
		writers []io.Writer
		closer  io.Closer = nopCloser{}
	)

	if opts.File != "" && opts.File != "console" {
		lumberjackLogger := &lumberjack.Logger{
			// Log file absolute path, os agnostic
			Filename:   filepath.ToSlash(opts.File),
			MaxSize:    5, // MB
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
		writers = append(writers, lumberjackLogger)
		closer = lumberjackLogger
	}
	if opts.Console != nil {
		writers = append(writers, opts.Console)
	}

	switch len(writers) {
	case 0:
		log.SetOutput(io.Discard)
	case 1:
		log.SetOutput(writers[0])
	default:
		log.SetOutput(io.MultiWriter(writers...))
	}

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		DisableColors:   opts.Console == nil,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	log.SetLevel(level)
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
