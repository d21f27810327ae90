// Package logging wraps zerolog behind the small leveled surface the rest
// of the module logs through. The engine stays silent until Configure is
// called, so importing wirespec as a library never writes to stderr.
package logging

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel     = "WIRESPEC_LOG_LEVEL"
	EnvLogTimestamp = "WIRESPEC_LOG_TIMESTAMP"
	EnvLogNoColor   = "WIRESPEC_LOG_NOCOLOR"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

var (
	mu            sync.RWMutex
	configureOnce sync.Once
	logger        = zerolog.Nop()
)

func ConfigureRuntime() {
	Configure(ProfileRuntime)
}

func ConfigureTests() {
	Configure(ProfileTest)
}

func Configure(profile Profile) {
	configureOnce.Do(func() {
		level := zerolog.InfoLevel
		timestamp := true
		noColor := false
		if profile == ProfileTest {
			level = zerolog.DebugLevel
			timestamp = false
		}
		if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
			level = lvl
		}
		if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
			timestamp = v
		}
		if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
			noColor = v
		}

		out := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
			NoColor:    noColor,
		}
		ctx := zerolog.New(out).Level(level).With().Str("app", "wirespec")
		if timestamp {
			ctx = ctx.Timestamp()
		}
		mu.Lock()
		logger = ctx.Logger()
		mu.Unlock()
	})
}

func Debugf(format string, args ...any) {
	get().Debug().Msgf(format, args...)
}

func Infof(format string, args ...any) {
	get().Info().Msgf(format, args...)
}

func Warnf(format string, args ...any) {
	get().Warn().Msgf(format, args...)
}

func Errf(format string, args ...any) {
	get().Error().Msgf(format, args...)
}

func get() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &logger
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
