package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkPresets(t *testing.T) {
	regtest, ok := NetworkPresets["regtest"]
	require.True(t, ok)
	assert.Equal(t, "http://localhost:18443", regtest.URL)

	testnet, ok := NetworkPresets["testnet"]
	require.True(t, ok)
	assert.Equal(t, "http://localhost:18332", testnet.URL)

	_, ok = NetworkPresets["mainnet"]
	assert.False(t, ok)
}

func TestResolveConfig(t *testing.T) {
	tests := []struct {
		name    string
		flags   *RPCConfig
		env     map[string]string
		network string
		want    RPCConfig
		wantErr error
	}{
		{
			name:    "preset",
			network: "regtest",
			want:    RPCConfig{URL: "http://localhost:18443", User: "lottery", Password: "lottery", Network: "regtest"},
		},
		{
			name:    "env over preset",
			env:     map[string]string{EnvRPCURL: "http://node:8332", EnvRPCUser: "alice"},
			network: "testnet",
			want:    RPCConfig{URL: "http://node:8332", User: "alice", Password: "lottery", Network: "testnet"},
		},
		{
			name:    "flags over env",
			flags:   &RPCConfig{URL: "http://flag:1", Password: "pw"},
			env:     map[string]string{EnvRPCURL: "http://env:2", EnvRPCPass: "envpw"},
			network: "regtest",
			want:    RPCConfig{URL: "http://flag:1", User: "lottery", Password: "pw", Network: "regtest"},
		},
		{
			name:    "mainnet explicit",
			flags:   &RPCConfig{URL: "https://bsv.example:8332", User: "u", Password: "p"},
			network: "mainnet",
			want:    RPCConfig{URL: "https://bsv.example:8332", User: "u", Password: "p", Network: "mainnet"},
		},
		{
			name:    "mainnet without url",
			network: "mainnet",
			wantErr: ErrMissingRPCConfig,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveConfig(tc.flags, tc.env, tc.network)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestResolveConfigDoesNotMutatePresets(t *testing.T) {
	_, err := ResolveConfig(&RPCConfig{URL: "http://other:1"}, nil, "regtest")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:18443", NetworkPresets["regtest"].URL)
}
