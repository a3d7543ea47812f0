package logging

import (
	"os"
	"strings"

	gnarkLogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

func Logger() *zerolog.Logger {
	return &log
}

func SetJSONOutput() {
	log = zerolog.New(os.Stdout).With().Timestamp().Logger()
	gnarkLogger.Set(log)
}

// SetLevel adjusts the global log level. Unknown names leave the level
// untouched so a typo in LOG_LEVEL never silences the service.
func SetLevel(level string) {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		log.Warn().Str("level", level).Msg("unknown log level, keeping current")
		return
	}
	log = log.Level(parsed)
	gnarkLogger.Set(log)
}
