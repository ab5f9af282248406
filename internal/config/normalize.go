package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCreator()
	c.normalizeEndpoints()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCreator() {
	c.Creator.Name = strings.TrimSpace(c.Creator.Name)
	c.Creator.Address = strings.ToLower(strings.TrimSpace(c.Creator.Address))
	if c.Creator.ContributionPercent == 0 {
		c.Creator.ContributionPercent = defaultContributionPercent
	}
}

func (c *Config) normalizeEndpoints() {
	c.StorageGateway.UploadBaseURL = trimBaseURL(c.StorageGateway.UploadBaseURL)
	c.StorageGateway.GatewayBaseURL = trimBaseURL(c.StorageGateway.GatewayBaseURL)
	c.StorageGateway.APIKey = strings.TrimSpace(c.StorageGateway.APIKey)
	if c.StorageGateway.RequestTimeout <= 0 {
		c.StorageGateway.RequestTimeout = defaultStorageRequestTimeout
	}

	c.Verification.BaseURL = trimBaseURL(c.Verification.BaseURL)
	c.Verification.APIKey = strings.TrimSpace(c.Verification.APIKey)
	if c.Verification.PollAttempts <= 0 {
		c.Verification.PollAttempts = defaultVerifyPollAttempts
	}
	if c.Verification.PollInterval <= 0 {
		c.Verification.PollInterval = defaultVerifyPollInterval
	}
	if c.Verification.RequestTimeout <= 0 {
		c.Verification.RequestTimeout = defaultVerifyRequestTimeout
	}

	c.Ledger.BaseURL = trimBaseURL(c.Ledger.BaseURL)
	c.Ledger.APIKey = strings.TrimSpace(c.Ledger.APIKey)
	c.Ledger.SPGContract = strings.ToLower(strings.TrimSpace(c.Ledger.SPGContract))
	c.Ledger.ExplorerBase = trimBaseURL(c.Ledger.ExplorerBase)
	if strings.TrimSpace(c.Ledger.Chain) == "" {
		c.Ledger.Chain = defaultLedgerChain
	}
	if c.Ledger.RequestTimeout <= 0 {
		c.Ledger.RequestTimeout = defaultLedgerRequestTimeout
	}

	c.Licensing.RoyaltyPolicy = strings.ToLower(strings.TrimSpace(c.Licensing.RoyaltyPolicy))
	c.Licensing.CurrencyToken = strings.ToLower(strings.TrimSpace(c.Licensing.CurrencyToken))
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		c.Workflow.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		c.Workflow.HeartbeatTimeout = defaultHeartbeatTimeout
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

func trimBaseURL(value string) string {
	return strings.TrimRight(strings.TrimSpace(value), "/")
}
