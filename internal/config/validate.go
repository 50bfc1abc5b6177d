package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateManifest(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDownload() error {
	if err := ensurePositiveMap(map[string]int{
		"download.workers":         c.Download.Workers,
		"download.request_timeout": c.Download.RequestTimeout,
		"download.retry_delay":     c.Download.RetryDelay,
		"download.retry_max_delay": c.Download.RetryMaxDelay,
		"download.max_attempts":    c.Download.MaxAttempts,
	}); err != nil {
		return err
	}
	if c.Download.RetryMaxDelay < c.Download.RetryDelay {
		return errors.New("download.retry_max_delay must be >= download.retry_delay")
	}
	return nil
}

func (c *Config) validateManifest() error {
	switch c.Manifest.Priority {
	case "vendor", "user":
		return nil
	default:
		return fmt.Errorf("manifest.priority must be \"vendor\" or \"user\", got %q", c.Manifest.Priority)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
