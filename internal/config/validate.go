package config

import (
	"fmt"
)

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Playback.Validate(); err != nil {
		return fmt.Errorf("playback config: %w", err)
	}

	if err := c.Encode.Validate(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return nil
}

func (s *ServerConfig) Validate() error {
	if !s.Enabled {
		return nil
	}

	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid port: %d", s.Port)
	}

	if s.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}

	if s.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}

	return nil
}

func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	if l.Format != "json" && l.Format != "text" {
		return fmt.Errorf("invalid log format: %s", l.Format)
	}

	return nil
}

func (p *PlaybackConfig) Validate() error {
	if p.QueueCapacity < 1 {
		return fmt.Errorf("queue_capacity must be at least 1")
	}

	if p.FallbackFPS <= 0 {
		return fmt.Errorf("fallback_fps must be positive")
	}

	if p.PacingSlack < 0 {
		return fmt.Errorf("pacing_slack must not be negative")
	}

	return nil
}

func (e *EncodeConfig) Validate() error {
	switch e.Codec {
	case "h264", "hevc", "av1":
	default:
		return fmt.Errorf("unsupported encode codec: %s", e.Codec)
	}

	if e.DPBSlots < 1 {
		return fmt.Errorf("dpb_slots must be at least 1")
	}

	if e.BitstreamCapacity < 64*1024 {
		return fmt.Errorf("bitstream_capacity too small: %d", e.BitstreamCapacity)
	}

	if e.FenceTimeout <= 0 {
		return fmt.Errorf("fence_timeout must be positive")
	}

	if e.FenceRetries < 1 {
		return fmt.Errorf("fence_retries must be at least 1")
	}

	return nil
}
