package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCreator(); err != nil {
		return err
	}
	if err := c.validateStorageGateway(); err != nil {
		return err
	}
	if err := c.validateVerification(); err != nil {
		return err
	}
	if err := c.validateLedger(); err != nil {
		return err
	}
	if err := c.validateLicensing(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCreator() error {
	if c.Creator.Address == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/phonogram/config.toml"
		}
		return fmt.Errorf("creator.address is required. Edit %s (create with 'phonogram config init')", defaultPath)
	}
	if !strings.HasPrefix(c.Creator.Address, "0x") {
		return errors.New("creator.address must be a 0x-prefixed address")
	}
	if c.Creator.ContributionPercent < 1 || c.Creator.ContributionPercent > 100 {
		return errors.New("creator.contribution_percent must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateStorageGateway() error {
	if c.StorageGateway.UploadBaseURL == "" {
		return errors.New("storage_gateway.upload_base_url must be set")
	}
	if c.StorageGateway.GatewayBaseURL == "" {
		return errors.New("storage_gateway.gateway_base_url must be set")
	}
	return nil
}

func (c *Config) validateVerification() error {
	if c.Verification.BaseURL == "" {
		return errors.New("verification.base_url must be set")
	}
	if c.Verification.PollAttempts < 1 {
		return errors.New("verification.poll_attempts must be at least 1")
	}
	if c.Verification.PollInterval < 1 {
		return errors.New("verification.poll_interval must be at least 1 second")
	}
	return nil
}

func (c *Config) validateLedger() error {
	if c.Ledger.BaseURL == "" {
		return errors.New("ledger.base_url must be set")
	}
	if c.Ledger.SPGContract == "" {
		return errors.New("ledger.spg_contract must be set")
	}
	if !strings.HasPrefix(c.Ledger.SPGContract, "0x") {
		return errors.New("ledger.spg_contract must be a 0x-prefixed address")
	}
	return nil
}

func (c *Config) validateLicensing() error {
	if c.Licensing.DefaultMintingFee < 0 {
		return errors.New("licensing.default_minting_fee must not be negative")
	}
	if c.Licensing.CommercialRevShare < 0 || c.Licensing.CommercialRevShare > 100 {
		return errors.New("licensing.commercial_rev_share must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format must be auto, console, or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
