package media

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"scribe/internal/logger"
	"scribe/internal/process"
)

// Converter re-encodes the media file at in into audio at out.
type Converter interface {
	Convert(ctx context.Context, in, out string) error
}

// FFmpegConfig configures the ffmpeg converter.
type FFmpegConfig struct {
	Binary     string
	SampleRate int
	Channels   int
	Timeout    time.Duration
}

// DefaultFFmpegConfig returns 16 kHz mono output settings.
func DefaultFFmpegConfig() FFmpegConfig {
	return FFmpegConfig{
		Binary:     "ffmpeg",
		SampleRate: 16000,
		Channels:   1,
		Timeout:    2 * time.Minute,
	}
}

// FFmpeg converts media with the ffmpeg binary into 16-bit little endian PCM WAV.
type FFmpeg struct {
	cfg FFmpegConfig
	log *logger.Logger
}

// NewFFmpeg creates an ffmpeg converter. Zero fields in cfg take defaults.
func NewFFmpeg(cfg FFmpegConfig, log *logger.Logger) *FFmpeg {
	def := DefaultFFmpegConfig()
	if cfg.Binary == "" {
		cfg.Binary = def.Binary
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.Channels <= 0 {
		cfg.Channels = def.Channels
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &FFmpeg{cfg: cfg, log: log.WithComponent("ffmpeg")}
}

// Args builds the ffmpeg argument list for converting in to out.
func (f *FFmpeg) Args(in, out string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", in,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(f.cfg.SampleRate),
		"-ac", strconv.Itoa(f.cfg.Channels),
		out,
	}
}

// Convert runs ffmpeg and checks that it produced a non-empty file.
func (f *FFmpeg) Convert(ctx context.Context, in, out string) error {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	cmd := process.Command{Binary: f.cfg.Binary, Args: f.Args(in, out)}
	f.log.Debug("running converter", logger.Fields("cmd", cmd.String()))

	res, err := process.Run(ctx, cmd)
	if err != nil {
		if tail := res.StderrTail(512); tail != "" {
			return fmt.Errorf("ffmpeg: %w: %s", err, tail)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}

	info, err := os.Stat(out)
	if err != nil {
		return fmt.Errorf("ffmpeg: output missing: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("ffmpeg: output %s is empty", out)
	}

	f.log.Info("conversion finished", logger.Fields(
		logger.FieldSizeBytes, info.Size(),
		logger.FieldDurationMs, res.Duration.Milliseconds(),
	))
	return nil
}
