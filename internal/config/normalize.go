package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDownload()
	c.normalizeManifest()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ResourceDir) == "" {
		c.Paths.ResourceDir = defaultResourceDir
	}
	if c.Paths.ResourceDir, err = expandPath(c.Paths.ResourceDir); err != nil {
		return fmt.Errorf("paths.resource_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SaveDir) == "" {
		c.Paths.SaveDir = defaultSaveDir
	}
	if c.Paths.SaveDir, err = expandPath(c.Paths.SaveDir); err != nil {
		return fmt.Errorf("paths.save_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LedgerPath) == "" {
		c.Paths.LedgerPath = filepath.Join(c.Paths.LogDir, defaultLedgerFile)
	}
	if c.Paths.LedgerPath, err = expandPath(c.Paths.LedgerPath); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeDownload() {
	c.Download.UserAgent = strings.TrimSpace(c.Download.UserAgent)
	if c.Download.UserAgent == "" {
		if value, ok := os.LookupEnv("SPINEFETCH_USER_AGENT"); ok {
			c.Download.UserAgent = strings.TrimSpace(value)
		}
	}
	if c.Download.UserAgent == "" {
		c.Download.UserAgent = defaultUserAgent
	}
	if len(c.Download.Models) > 0 {
		models := make([]string, 0, len(c.Download.Models))
		seen := make(map[string]struct{}, len(c.Download.Models))
		for _, model := range c.Download.Models {
			trimmed := strings.TrimSpace(model)
			if trimmed == "" {
				continue
			}
			if _, exists := seen[trimmed]; exists {
				continue
			}
			seen[trimmed] = struct{}{}
			models = append(models, trimmed)
		}
		c.Download.Models = models
	}
}

func (c *Config) normalizeManifest() {
	value := strings.ToLower(strings.TrimSpace(c.Manifest.Priority))
	switch value {
	case "":
		value = defaultPriority
	case "仓库":
		value = "vendor"
	case "用户":
		value = "user"
	}
	c.Manifest.Priority = value
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
