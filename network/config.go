package network

import "fmt"

// RPCConfig holds the connection parameters for a BSV node's JSON-RPC interface.
type RPCConfig struct {
	URL      string `json:"url" toml:"url"`
	User     string `json:"user" toml:"user"`
	Password string `json:"password" toml:"password"`
	Network  string `json:"network" toml:"network"`
}

// Environment variables read by ResolveConfig.
const (
	EnvRPCURL  = "LOTTERY_RPC_URL"
	EnvRPCUser = "LOTTERY_RPC_USER"
	EnvRPCPass = "LOTTERY_RPC_PASS"
)

// NetworkPresets contains default RPC endpoints for local nodes.
// Mainnet has no preset and must be configured explicitly.
var NetworkPresets = map[string]RPCConfig{
	"regtest": {URL: "http://localhost:18443", User: "lottery", Password: "lottery"},
	"testnet": {URL: "http://localhost:18332", User: "lottery", Password: "lottery"},
}

// ResolveConfig layers RPC settings: flags over environment over preset.
func ResolveConfig(flags *RPCConfig, env map[string]string, network string) (*RPCConfig, error) {
	result := RPCConfig{Network: network}
	if preset, ok := NetworkPresets[network]; ok {
		result = preset
		result.Network = network
	}

	if v := env[EnvRPCURL]; v != "" {
		result.URL = v
	}
	if v := env[EnvRPCUser]; v != "" {
		result.User = v
	}
	if v := env[EnvRPCPass]; v != "" {
		result.Password = v
	}

	if flags != nil {
		if flags.URL != "" {
			result.URL = flags.URL
		}
		if flags.User != "" {
			result.User = flags.User
		}
		if flags.Password != "" {
			result.Password = flags.Password
		}
	}

	if result.URL == "" {
		return nil, fmt.Errorf("%w: %s (set --rpc-url or %s)", ErrMissingRPCConfig, network, EnvRPCURL)
	}
	return &result, nil
}
