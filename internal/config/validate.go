package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePackaging(); err != nil {
		return err
	}
	if err := c.validateEDepot(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePackaging() error {
	if c.Packaging.MinFreeGiB < 0 {
		return errors.New("packaging.min_free_gib must not be negative")
	}
	return nil
}

func (c *Config) validateEDepot() error {
	if c.EDepot.SkipUpload {
		return nil
	}
	// Host and credentials stay optional until an upload is attempted; the
	// uploader gives a precise error then. Only reject nonsense here.
	if c.EDepot.Port < 0 || c.EDepot.Port > 65535 {
		return fmt.Errorf("edepot.port %d out of range", c.EDepot.Port)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
