package telemetry

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a zerolog-backed structured logger. Child loggers share their
// parent's sink and level and add bound fields on top.
type Logger struct {
	zl  zerolog.Logger
	cfg LoggingConfig
}

type loggerKey struct{}

// NewLogger builds a logger from cfg. Output names stdout, stderr, or a
// file path, which is opened in append mode.
func NewLogger(cfg LoggingConfig) (*Logger, error) {
	sink, err := openLogSink(cfg.Output)
	if err != nil {
		return nil, err
	}
	if cfg.Format == "console" {
		sink = zerolog.ConsoleWriter{Out: sink, TimeFormat: time.RFC3339}
	}
	zerolog.TimeFieldFormat = timeFieldFormat(cfg.TimeFormat)

	zl := zerolog.New(sink).Level(logLevel(cfg.Level)).With().Timestamp().Logger()
	if cfg.EnableCaller {
		zl = zl.With().Caller().Logger()
	}
	if cfg.EnableSampling {
		zl = zl.Sample(&zerolog.BurstSampler{
			Burst:       uint32(cfg.SamplingInitial),
			Period:      time.Second,
			NextSampler: &zerolog.BasicSampler{N: uint32(cfg.SamplingThereafter)},
		})
	}
	return &Logger{zl: zl, cfg: cfg}, nil
}

func openLogSink(output string) (io.Writer, error) {
	switch output {
	case "stdout":
		return os.Stdout, nil
	case "stderr", "":
		return os.Stderr, nil
	}
	return os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// logLevel maps a level name to its zerolog level. Unknown names fall
// back to info rather than failing: a misspelled --log-level should not
// kill a sweep.
func logLevel(name string) zerolog.Level {
	lv, err := zerolog.ParseLevel(name)
	if err != nil || lv == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lv
}

func timeFieldFormat(name string) string {
	switch name {
	case "unix":
		return zerolog.TimeFormatUnix
	case "unixms":
		return zerolog.TimeFormatUnixMs
	case "unixmicro":
		return zerolog.TimeFormatUnixMicro
	}
	return time.RFC3339
}

func (l *Logger) derive(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl, cfg: l.cfg}
}

// NewComponentLogger returns a child logger tagged with a component name.
func (l *Logger) NewComponentLogger(component string) *Logger {
	return l.derive(l.zl.With().Str("component", component).Logger())
}

// WithField returns a child logger with one extra bound field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.derive(l.zl.With().Interface(key, value).Logger())
}

// WithFields returns a child logger with several extra bound fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	zc := l.zl.With()
	for k, v := range fields {
		zc = zc.Interface(k, v)
	}
	return l.derive(zc.Logger())
}

// WithSweepID binds the sweep identifier.
func (l *Logger) WithSweepID(sweepID string) *Logger {
	return l.WithField("sweep_id", sweepID)
}

// WithSimulationID binds the simulation identifier.
func (l *Logger) WithSimulationID(simID string) *Logger {
	return l.WithField("sim_id", simID)
}

// WithError binds an error field.
func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.zl.With().Err(err).Logger())
}

// WithContext stores the logger in ctx for FromContext to find.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the logger stored in ctx. When none was stored it
// returns a plain stderr logger, never nil, so call sites need no guard.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return l
	}
	return &Logger{zl: zerolog.New(os.Stderr).With().Timestamp().Logger()}
}

func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }

func (l *Logger) Info(msg string) { l.zl.Info().Msg(msg) }

func (l *Logger) Warn(msg string) { l.zl.Warn().Msg(msg) }

func (l *Logger) Error(msg string) { l.zl.Error().Msg(msg) }

// Fatal logs the message and exits the process.
func (l *Logger) Fatal(msg string) { l.zl.Fatal().Msg(msg) }
