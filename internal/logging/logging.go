// Package logging holds the process wide zerolog logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

var (
	console = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}

	// L is the logger every package writes to.
	L = zerolog.New(console).With().Timestamp().Caller().Logger()

	logFile *os.File
)

func SetLogLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// SetLogOutput mirrors all log lines into dir/fileName in addition to stdout.
func SetLogOutput(dir, fileName string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}
	f, err := os.OpenFile(
		filepath.Join(dir, fileName),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0640,
	)
	if err != nil {
		return err
	}
	logFile = f
	L = L.Output(zerolog.MultiLevelWriter(console, f))
	return nil
}

// SetOutput replaces the writer, mostly used by tests to silence or capture logs.
func SetOutput(w io.Writer) {
	L = L.Output(w)
}

func Close() {
	if logFile == nil {
		return
	}
	if err := logFile.Close(); err != nil {
		L.Err(err).Msg("failed closing log file")
	}
	logFile = nil
}
