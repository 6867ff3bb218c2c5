// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	logger "github.com/ElrondNetwork/elrond-go-logger"

	"github.com/bitfsorg/lottery-go/host"
	"github.com/bitfsorg/lottery-go/lottery"
	"github.com/bitfsorg/lottery-go/network"
)

var log = logger.GetOrCreate("lottery/config")

// FileName is the configuration file name inside the data directory.
const FileName = "lottery.toml"

// Config holds the settings of a lottery deployment.
type Config struct {
	DataDir  string            `toml:"datadir"`
	Network  string            `toml:"network"`
	MinStake string            `toml:"min_stake"` // decimal coin amount, e.g. "0.01"
	CallFee  uint64            `toml:"call_fee"`  // satoshis per mutating call
	FeeRate  uint64            `toml:"fee_rate"`  // satoshis per kilobyte for on-chain payouts
	LogLevel string            `toml:"log_level"`
	LogFile  string            `toml:"log_file"`
	Mnemonic string            `toml:"mnemonic"`
	RPC      network.RPCConfig `toml:"rpc"`
}

// DefaultDataDir returns ~/.lottery, or .lottery when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lottery"
	}
	return filepath.Join(home, ".lottery")
}

// ConfigPath returns the configuration file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		DataDir:  DefaultDataDir(),
		Network:  "regtest",
		MinStake: lottery.FormatAmount(lottery.DefaultMinStake),
		CallFee:  host.DefaultCallFee,
		LogLevel: "info",
		Mnemonic: host.DevMnemonic,
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. Keys the file does
// not set keep their defaults; unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("%w: %s: %w", ErrInvalidConfigFile, path, err)
	}
	for _, key := range md.Undecoded() {
		log.Warn("unknown configuration key", "file", path, "key", key.String())
	}
	return cfg, nil
}

// SaveConfig writes cfg as TOML, creating parent directories as needed.
// The file may hold a mnemonic and RPC credentials, so it is private to the owner.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		_ = f.Close()
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	return f.Close()
}

// MinStakeSats returns the minimum stake in satoshis.
func (c Config) MinStakeSats() (uint64, error) {
	sats, err := lottery.ParseAmount(c.MinStake)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidMinStake, err)
	}
	if sats == 0 {
		return 0, ErrInvalidMinStake
	}
	return sats, nil
}

// LogLevelPattern returns the logger pattern applying LogLevel to every logger.
func (c Config) LogLevelPattern() string {
	return "*:" + strings.ToUpper(c.LogLevel)
}

// Mainnet reports whether addresses should be rendered for mainnet.
func (c Config) Mainnet() bool {
	return c.Network == "mainnet"
}
