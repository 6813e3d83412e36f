package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"scribe/internal/logger"
)

// Empty transcript policies.
const (
	EmptyTranscriptError = "error"
	EmptyTranscriptSoft  = "soft"
)

// Supported transcription providers.
const (
	ProviderDeepgram = "deepgram"
	ProviderOpenAI   = "openai"
)

type Config struct {
	Port    string `mapstructure:"port" validate:"required,numeric"`
	GinMode string `mapstructure:"gin_mode" validate:"oneof=debug release test"`

	Provider       string `mapstructure:"stt_provider" validate:"oneof=deepgram openai"`
	DeepgramAPIKey string `mapstructure:"deepgram_api_key" validate:"required_if=Provider deepgram"`
	DeepgramURL    string `mapstructure:"deepgram_url" validate:"required,url"`
	OpenAIAPIKey   string `mapstructure:"openai_api_key" validate:"required_if=Provider openai"`
	OpenAIBaseURL  string `mapstructure:"openai_base_url" validate:"omitempty,url"`
	OpenAIModel    string `mapstructure:"openai_model" validate:"required"`

	// Options sent with every transcription request.
	Model       string `mapstructure:"stt_model" validate:"required"`
	Language    string `mapstructure:"stt_language" validate:"required"`
	Diarize     bool   `mapstructure:"stt_diarize"`
	SmartFormat bool   `mapstructure:"stt_smart_format"`
	Punctuate   bool   `mapstructure:"stt_punctuate"`

	ProviderTimeout     time.Duration `mapstructure:"provider_timeout" validate:"gt=0"`
	EmptyTranscriptMode string        `mapstructure:"empty_transcript_mode" validate:"oneof=error soft"`

	TempDir           string        `mapstructure:"temp_dir"`
	FFmpegPath        string        `mapstructure:"ffmpeg_path" validate:"required"`
	ConversionTimeout time.Duration `mapstructure:"conversion_timeout" validate:"gt=0"`

	MaxConcurrentJobs int           `mapstructure:"max_concurrent_jobs" validate:"min=1"`
	QueueWait         time.Duration `mapstructure:"queue_wait" validate:"gte=0"`
	MaxUploadSize     string        `mapstructure:"max_upload_size" validate:"required"`
	// MaxUploadBytes is MaxUploadSize parsed, e.g. "25MB" -> 25000000.
	MaxUploadBytes int64 `mapstructure:"-"`

	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`

	Log logger.Config `mapstructure:"-"`
}

var defaults = map[string]interface{}{
	"port":                  "5000",
	"gin_mode":              "release",
	"stt_provider":          ProviderDeepgram,
	"deepgram_api_key":      "",
	"deepgram_url":          "https://api.deepgram.com/v1/listen",
	"openai_api_key":        "",
	"openai_base_url":       "",
	"openai_model":          "whisper-1",
	"stt_model":             "nova-2-general",
	"stt_language":          "en",
	"stt_diarize":           true,
	"stt_smart_format":      true,
	"stt_punctuate":         true,
	"provider_timeout":      90 * time.Second,
	"empty_transcript_mode": EmptyTranscriptError,
	"temp_dir":              "",
	"ffmpeg_path":           "ffmpeg",
	"conversion_timeout":    2 * time.Minute,
	"max_concurrent_jobs":   4,
	"queue_wait":            30 * time.Second,
	"max_upload_size":       "25MB",
	"cors_allowed_origins":  []string{"*"},
	"log_level":             "info",
	"log_format":            "console",
	"log_output":            "stdout",
	"log_no_color":          false,
	"log_max_size":          100,
	"log_max_backups":       3,
	"log_max_age":           28,
	"log_compress":          false,
}

type loadOptions struct {
	envFile    string
	configFile string
}

// Option customizes Load.
type Option func(*loadOptions)

// WithEnvFile loads variables from path before reading the environment.
// Variables already set in the process take precedence. A missing file is
// ignored.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) { o.envFile = path }
}

// WithConfigFile reads a YAML file as the base layer under environment
// variables. A missing file is an error.
func WithConfigFile(path string) Option {
	return func(o *loadOptions) { o.configFile = path }
}

// Load builds the configuration from defaults, an optional config file and
// environment variables, then validates it.
func Load(opts ...Option) (*Config, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.configFile == "" {
		o.configFile = os.Getenv("CONFIG_FILE")
	}

	if o.envFile != "" {
		if _, err := os.Stat(o.envFile); err == nil {
			if err := godotenv.Load(o.envFile); err != nil {
				return nil, fmt.Errorf("failed to load env file %s: %w", o.envFile, err)
			}
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if o.configFile != "" {
		v.SetConfigFile(o.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", o.configFile, err)
		}
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Log = logger.Config{
		Level:      strings.ToLower(v.GetString("log_level")),
		Format:     strings.ToLower(v.GetString("log_format")),
		Output:     v.GetString("log_output"),
		NoColor:    v.GetBool("log_no_color"),
		MaxSize:    v.GetInt("log_max_size"),
		MaxBackups: v.GetInt("log_max_backups"),
		MaxAge:     v.GetInt("log_max_age"),
		Compress:   v.GetBool("log_compress"),
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.EmptyTranscriptMode = strings.ToLower(strings.TrimSpace(cfg.EmptyTranscriptMode))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and derives MaxUploadBytes.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	size, err := humanize.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("MAX_UPLOAD_SIZE: invalid size %q: %w", c.MaxUploadSize, err)
	}
	if size == 0 {
		return errors.New("MAX_UPLOAD_SIZE must be greater than zero")
	}
	c.MaxUploadBytes = int64(size)
	return nil
}

// SoftEmptyTranscript reports whether an empty transcript should be
// answered with a placeholder instead of an error.
func (c *Config) SoftEmptyTranscript() bool {
	return c.EmptyTranscriptMode == EmptyTranscriptSoft
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their environment variable name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return strings.ToUpper(name)
	})
	return v
}

func formatValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, requiredIfCondition(fe.Param()))
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got %q)", field, fe.Param(), fmt.Sprint(fe.Value()))
	case "url":
		return field + " must be a valid URL"
	case "numeric":
		return field + " must be numeric"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// requiredIfCondition renders "Provider deepgram" as "STT_PROVIDER=deepgram".
func requiredIfCondition(param string) string {
	parts := strings.Fields(param)
	if len(parts) != 2 {
		return param
	}
	field := parts[0]
	if f, ok := reflect.TypeOf(Config{}).FieldByName(field); ok {
		if tag := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]; tag != "" {
			field = strings.ToUpper(tag)
		}
	}
	return field + "=" + parts[1]
}
