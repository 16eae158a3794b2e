package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// Log is the process-wide logger. It is mirrored into zerolog/log so internal
// packages can log without importing this package.
var Log zerolog.Logger

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano
	install(New(os.Stdout, FormatConsole, zerolog.InfoLevel))
}

// New builds a logger writing to w. Unknown formats fall back to console.
func New(w io.Writer, format string, level zerolog.Level) zerolog.Logger {
	if strings.ToLower(format) != FormatJSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05"}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Caller().Logger()
}

// Configure replaces the global logger with the given format and level.
func Configure(format, level string) {
	lvl := ParseLevel(level)
	zerolog.SetGlobalLevel(lvl)
	install(New(os.Stdout, format, lvl))
}

// ParseLevel maps a level name to a zerolog level; gin's "release" mode reads as info.
// Empty or unknown names yield info.
func ParseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "release" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func install(l zerolog.Logger) {
	Log = l
	log.Logger = l
}
