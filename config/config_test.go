// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/bitfsorg/lottery-go/lottery"
	"github.com/bitfsorg/lottery-go/network"
)

// ---------------------------------------------------------------------------
// DefaultConfig tests
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"Network", cfg.Network, "regtest"},
		{"MinStake", cfg.MinStake, "0.01"},
		{"CallFee", cfg.CallFee, uint64(500)},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFile", cfg.LogFile, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	if !strings.HasSuffix(cfg.DataDir, ".lottery") {
		t.Errorf("DataDir = %q, want suffix %q", cfg.DataDir, ".lottery")
	}
	if cfg.Mnemonic == "" {
		t.Error("Mnemonic should default to the development mnemonic")
	}
}

func TestConfigPath(t *testing.T) {
	got := ConfigPath("/home/user/.lottery")
	want := filepath.Join("/home/user/.lottery", "lottery.toml")
	if got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
}

// ---------------------------------------------------------------------------
// SaveConfig / LoadConfig round-trip tests
// ---------------------------------------------------------------------------

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	original := Config{
		DataDir:  "/tmp/test-lottery",
		Network:  "testnet",
		MinStake: "0.05",
		CallFee:  1000,
		FeeRate:  100,
		LogLevel: "debug",
		LogFile:  "/tmp/lottery.log",
		Mnemonic: "",
		RPC: network.RPCConfig{
			URL:      "http://node:18332",
			User:     "rpcuser",
			Password: "rpcpass",
			Network:  "testnet",
		},
	}

	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if loaded != original {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", loaded, original)
	}
}

func TestSaveConfigCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", FileName)

	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig should create parent dirs: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Config file not created: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}
}

// ---------------------------------------------------------------------------
// LoadConfig error and partial-file tests
// ---------------------------------------------------------------------------

func TestLoadConfigNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/lottery.toml")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig nonexistent: got %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("this-is-not-toml\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalidConfigFile) {
		t.Errorf("LoadConfig bad file: got %v, want ErrInvalidConfigFile", err)
	}
}

func TestLoadConfigPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	content := `# operator overrides
network = "testnet"
log_level = "debug"

[rpc]
url = "http://127.0.0.1:18332"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Network != "testnet" {
		t.Errorf("Network = %q, want %q", cfg.Network, "testnet")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.RPC.URL != "http://127.0.0.1:18332" {
		t.Errorf("RPC.URL = %q", cfg.RPC.URL)
	}
	if cfg.MinStake != "0.01" {
		t.Errorf("MinStake = %q, want default %q", cfg.MinStake, "0.01")
	}
}

func TestLoadConfigUnknownKeysIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	content := "future_key = \"future\"\nnetwork = \"mainnet\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig with unknown key: %v", err)
	}
	if !cfg.Mainnet() {
		t.Errorf("Network = %q, want mainnet", cfg.Network)
	}
}

// ---------------------------------------------------------------------------
// ValidateConfig tests
// ---------------------------------------------------------------------------

func TestValidateConfigDefaults(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Errorf("ValidateConfig(DefaultConfig()) = %v, want nil", err)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:    "empty_datadir",
			modify:  func(c *Config) { c.DataDir = "" },
			wantErr: ErrEmptyDataDir,
		},
		{
			name:    "bad_network",
			modify:  func(c *Config) { c.Network = "devnet" },
			wantErr: ErrInvalidNetwork,
		},
		{
			name:    "bad_loglevel",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "zero_min_stake",
			modify:  func(c *Config) { c.MinStake = "0" },
			wantErr: ErrInvalidMinStake,
		},
		{
			name:    "garbage_min_stake",
			modify:  func(c *Config) { c.MinStake = "lots" },
			wantErr: ErrInvalidMinStake,
		},
		{
			name:    "bad_mnemonic",
			modify:  func(c *Config) { c.Mnemonic = "correct horse battery staple" },
			wantErr: ErrInvalidMnemonic,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := ValidateConfig(cfg)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidateConfig: got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateConfigValidLogLevels(t *testing.T) {
	for _, level := range []string{"trace", "debug", "INFO", "warn", "error", "none"} {
		cfg := DefaultConfig()
		cfg.LogLevel = level
		if err := ValidateConfig(cfg); err != nil {
			t.Errorf("ValidateConfig with loglevel %q: %v", level, err)
		}
	}
}

func TestLogLevelPattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "debug"
	if got := cfg.LogLevelPattern(); got != "*:DEBUG" {
		t.Errorf("LogLevelPattern = %q, want %q", got, "*:DEBUG")
	}
}

func TestMinStakeSats(t *testing.T) {
	cfg := DefaultConfig()
	got, err := cfg.MinStakeSats()
	if err != nil {
		t.Fatalf("MinStakeSats: %v", err)
	}
	if got != lottery.DefaultMinStake {
		t.Errorf("MinStakeSats = %d, want %d", got, lottery.DefaultMinStake)
	}
}
