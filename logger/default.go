package logger

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Options controls console rendering and the optional log file tee.
type Options struct {
	Quiet    bool
	NoColors bool
	FilePath string
	SafeLogs bool
}

type DefaultLogger struct {
	logger   zerolog.Logger
	file     *os.File
	safeLogs bool
}

var Default = New(Options{})

var urlRegex = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*://[a-zA-Z0-9+%/.\-:_?&=#@+]+`)

// New builds a console logger, optionally teeing a color-free copy to a log
// file. Colors are disabled when stdout is not a terminal.
func New(opts Options) *DefaultLogger {
	noColor := opts.NoColors || !isatty.IsTerminal(os.Stdout.Fd())

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stdout, NoColor: noColor}}

	var file *os.File
	if opts.FilePath != "" {
		f, err := os.Create(opts.FilePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not open log file %s: %v\n", opts.FilePath, err)
		} else {
			file = f
			writers = append(writers, zerolog.ConsoleWriter{Out: f, NoColor: true})
		}
	}

	level := zerolog.InfoLevel
	if opts.Quiet {
		level = zerolog.WarnLevel
	}
	if os.Getenv("DEBUG") == "true" {
		level = zerolog.DebugLevel
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()

	return &DefaultLogger{
		logger:   zl,
		file:     file,
		safeLogs: opts.SafeLogs || os.Getenv("SAFE_LOGS") == "true",
	}
}

// Close flushes and closes the log file tee, if any.
func (l *DefaultLogger) Close() {
	if l.file != nil {
		_ = l.file.Close()
	}
}

func (l *DefaultLogger) safef(format string, v ...any) string {
	s := fmt.Sprintf(format, v...)
	if l.safeLogs {
		return urlRegex.ReplaceAllString(s, "[redacted url]")
	}
	return s
}

func (l *DefaultLogger) Log(msg string) {
	l.logger.Info().Msg(l.safef("%s", msg))
}

func (l *DefaultLogger) Logf(format string, v ...any) {
	l.logger.Info().Msg(l.safef(format, v...))
}

func (l *DefaultLogger) Debug(msg string) {
	l.logger.Debug().Msg(l.safef("%s", msg))
}

func (l *DefaultLogger) Debugf(format string, v ...any) {
	l.logger.Debug().Msg(l.safef(format, v...))
}

func (l *DefaultLogger) Warn(msg string) {
	l.logger.Warn().Msg(l.safef("%s", msg))
}

func (l *DefaultLogger) Warnf(format string, v ...any) {
	l.logger.Warn().Msg(l.safef(format, v...))
}

func (l *DefaultLogger) Error(msg string) {
	l.logger.Error().Msg(l.safef("%s", msg))
}

func (l *DefaultLogger) Errorf(format string, v ...any) {
	l.logger.Error().Msg(l.safef(format, v...))
}

func (l *DefaultLogger) Fatal(msg string) {
	l.logger.Fatal().Msg(l.safef("%s", msg))
}

func (l *DefaultLogger) Fatalf(format string, v ...any) {
	l.logger.Fatal().Msg(l.safef(format, v...))
}
