package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps zerolog.Logger with the service name and helpers for
// attaching map fields.
type Logger struct {
	logger  zerolog.Logger
	service string
}

// Config contains logging configuration.
type Config struct {
	Level      string `mapstructure:"log_level" validate:"oneof=trace debug info warn error fatal"`
	Format     string `mapstructure:"log_format" validate:"oneof=json console"`
	Output     string `mapstructure:"log_output"` // stdout, stderr or a file path
	NoColor    bool   `mapstructure:"log_no_color"`
	MaxSize    int    `mapstructure:"log_max_size"`    // megabytes
	MaxBackups int    `mapstructure:"log_max_backups"` // number of rotated files
	MaxAge     int    `mapstructure:"log_max_age"`     // days
	Compress   bool   `mapstructure:"log_compress"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
	if c.MaxSize == 0 {
		c.MaxSize = 100
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 3
	}
	if c.MaxAge == 0 {
		c.MaxAge = 28
	}
}

// New creates a logger from cfg.
func New(cfg Config, service string) *Logger {
	cfg.ApplyDefaults()
	return NewWithWriter(cfg, service, outputWriter(cfg))
}

// NewWithWriter creates a logger that writes to w instead of cfg.Output.
func NewWithWriter(cfg Config, service string, w io.Writer) *Logger {
	cfg.ApplyDefaults()
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if strings.ToLower(cfg.Format) == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: cfg.NoColor}
	}

	zl := zerolog.New(w).Level(level).With().Timestamp().Str(FieldService, service).Logger()
	return &Logger{logger: zl, service: service}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// WithComponent returns a logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		logger:  l.logger.With().Str(FieldComponent, name).Logger(),
		service: l.service,
	}
}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	zc := l.logger.With()
	for k, v := range fields {
		zc = zc.Interface(k, v)
	}
	return &Logger{logger: zc.Logger(), service: l.service}
}

// WithError returns a logger with an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		logger:  l.logger.With().Err(err).Logger(),
		service: l.service,
	}
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	addFields(l.logger.Debug(), fields...).Msg(msg)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	addFields(l.logger.Info(), fields...).Msg(msg)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	addFields(l.logger.Warn(), fields...).Msg(msg)
}

func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	addFields(l.logger.Error(), fields...).Msg(msg)
}

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, fields ...map[string]interface{}) {
	addFields(l.logger.Fatal(), fields...).Msg(msg)
}

func addFields(event *zerolog.Event, fields ...map[string]interface{}) *zerolog.Event {
	for _, fm := range fields {
		for k, v := range fm {
			event.Interface(k, v)
		}
	}
	return event
}

func outputWriter(cfg Config) io.Writer {
	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		return os.Stdout
	case "stderr":
		return os.Stderr
	default:
		return &lumberjack.Logger{
			Filename:   cfg.Output,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	}
}
