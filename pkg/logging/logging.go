package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

var logFile *os.File

/*
Options configures the process-wide logger.
*/
type Options struct {
	Level  string
	File   string
	Prefix string
}

/*
Init configures the default charmbracelet logger. When File is set, output is
appended to that file instead of stderr, so the console and MCP stdio modes
keep their terminal clean.
*/
func Init(opts Options) error {
	level := log.InfoLevel

	if opts.Level != "" {
		parsed, err := log.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}

		level = parsed
	}

	var out io.Writer = os.Stderr

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", opts.File, err)
		}

		Close()
		logFile = f
		out = f
	}

	log.SetDefault(log.NewWithOptions(out, log.Options{
		Level:           level,
		Prefix:          opts.Prefix,
		ReportTimestamp: true,
		ReportCaller:    level == log.DebugLevel,
		TimeFormat:      time.DateTime,
	}))

	log.Debug("logging initialized", "level", level, "file", opts.File)
	return nil
}

// Close closes the log file.
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}
