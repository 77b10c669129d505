package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var audioBitratePattern = regexp.MustCompile(`^[0-9]+k$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateImage(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validatePostprocess(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.SourceDir) == "" {
		return errors.New("paths.source_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.SourceDir == c.Paths.OutputDir {
		return errors.New("paths.output_dir must differ from paths.source_dir")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if !knownEncoder(c.Video.Encoder) {
		return fmt.Errorf("video.encoder must be one of: %s", strings.Join(Encoders, ", "))
	}
	if c.Video.Quality < 0 || c.Video.Quality > 51 {
		return errors.New("video.quality must be between 0 and 51")
	}
	if c.Video.MaxHeight <= 0 {
		return errors.New("video.max_height must be positive")
	}
	if c.Video.MaxHeight%2 != 0 {
		return errors.New("video.max_height must be even")
	}
	if !audioBitratePattern.MatchString(c.Video.AudioBitrate) {
		return fmt.Errorf("video.audio_bitrate must look like %q, got %q", "128k", c.Video.AudioBitrate)
	}
	if c.Video.TimeoutSeconds < 0 {
		return errors.New("video.timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateImage() error {
	if c.Image.Quality < 1 || c.Image.Quality > 100 {
		return errors.New("image.quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Workers < 0 {
		return errors.New("pipeline.workers must be >= 0")
	}
	if strings.TrimSpace(c.Pipeline.FFmpegBinary) == "" {
		return errors.New("pipeline.ffmpeg_binary must be set")
	}
	if strings.TrimSpace(c.Pipeline.FFprobeBinary) == "" {
		return errors.New("pipeline.ffprobe_binary must be set")
	}
	return nil
}

func (c *Config) validatePostprocess() error {
	if c.Postprocess.Rename && !c.Postprocess.Organize {
		return errors.New("postprocess.rename requires postprocess.organize to be enabled")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if strings.TrimSpace(c.Notifications.NtfyTopic) != "" && c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive when notifications.ntfy_topic is set")
	}
	return nil
}

func knownEncoder(name string) bool {
	for _, candidate := range Encoders {
		if name == candidate {
			return true
		}
	}
	return false
}
