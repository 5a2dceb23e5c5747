package logger

import (
	"io"
	stdlog "log"
	"os"
	"strings"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

type Config struct {
	LogLevel    string
	LogPretty   bool
	ServiceName string
	InstanceID  string
	// LogSampleN keeps one in N debug and info lines; warn and above are
	// never sampled. Values below 2 disable sampling.
	LogSampleN uint32
}

// Init installs the process-wide logger and redirects the standard library
// logger into it. Call once at startup.
func Init(cfg Config) {
	var w io.Writer = os.Stdout
	if cfg.LogPretty {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	l := New(cfg, w)
	zerolog.SetGlobalLevel(l.GetLevel())
	zlog.Logger = l

	stdlog.SetFlags(0)
	stdlog.SetOutput(zlog.Logger)
}

// New builds a logger writing to w with the service and instance fields set.
func New(cfg Config, w io.Writer) zerolog.Logger {
	base := zerolog.New(w).
		Level(parseLevel(cfg.LogLevel)).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("instance", instanceID(cfg.InstanceID)).
		Logger()

	if cfg.LogSampleN > 1 {
		return base.Sample(&zerolog.LevelSampler{
			DebugSampler: &zerolog.BasicSampler{N: cfg.LogSampleN},
			InfoSampler:  &zerolog.BasicSampler{N: cfg.LogSampleN},
		})
	}
	return base
}

func parseLevel(raw string) zerolog.Level {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if l, err := zerolog.ParseLevel(raw); err == nil && raw != "" {
		return l
	}
	return zerolog.InfoLevel
}

func instanceID(configured string) string {
	if configured != "" {
		return configured
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "unknown"
}
