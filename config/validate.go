// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"strings"

	bip39 "github.com/bsv-blockchain/go-sdk/compat/bip39"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"none":  true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if cfg.Network != "mainnet" && cfg.Network != "testnet" && cfg.Network != "regtest" {
		return ErrInvalidNetwork
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if _, err := cfg.MinStakeSats(); err != nil {
		return err
	}

	if cfg.Mnemonic != "" && !bip39.IsMnemonicValid(cfg.Mnemonic) {
		return fmt.Errorf("%w: fails BIP39 checksum", ErrInvalidMnemonic)
	}

	return nil
}
