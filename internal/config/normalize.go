package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSeries()
	c.normalizeEDepot()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		c.Paths.WorkspaceDir = defaultWorkspaceDir
	}
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SIPOutputDir) == "" {
		c.Paths.SIPOutputDir = defaultSIPOutputDir
	}
	if c.Paths.SIPOutputDir, err = expandPath(c.Paths.SIPOutputDir); err != nil {
		return fmt.Errorf("paths.sip_output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSeries() {
	c.Series.BaseURL = strings.TrimRight(strings.TrimSpace(c.Series.BaseURL), "/")
	c.Series.APIToken = strings.TrimSpace(c.Series.APIToken)
	if c.Series.RequestTimeout <= 0 {
		c.Series.RequestTimeout = defaultSeriesRequestTimeout
	}
}

func (c *Config) normalizeEDepot() {
	c.EDepot.Host = strings.TrimSpace(c.EDepot.Host)
	c.EDepot.User = strings.TrimSpace(c.EDepot.User)
	c.EDepot.RemoteDir = strings.Trim(strings.TrimSpace(c.EDepot.RemoteDir), "/")
	if c.EDepot.Port <= 0 {
		c.EDepot.Port = defaultEDepotPort
	}
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
