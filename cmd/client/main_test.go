package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/relaychat/internal/client"
)

func defaultConfig() client.Config {
	return client.Config{Host: "localhost", Port: 13}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantAddress  string
		wantName     string
		wantReadOnly bool
	}{
		{
			name:        "long flags",
			args:        []string{"--host", "10.0.0.2", "--port", "4000", "--name", "bob"},
			wantAddress: "10.0.0.2:4000",
			wantName:    "bob",
		},
		{
			name:        "name shorthand",
			args:        []string{"-n", "alice"},
			wantAddress: "localhost:13",
			wantName:    "alice",
		},
		{
			name:         "read-only",
			args:         []string{"--name", "carol", "--read-only"},
			wantAddress:  "localhost:13",
			wantName:     "carol",
			wantReadOnly: true,
		},
		{
			name:         "read-only shorthand",
			args:         []string{"-r", "-n", "dave"},
			wantAddress:  "localhost:13",
			wantName:     "dave",
			wantReadOnly: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			cfg := defaultConfig()
			var output bytes.Buffer

			err := parseFlags(tt.args, &cfg, &output)

			req.NoError(err)
			req.Equal(tt.wantAddress, cfg.Address())
			req.Equal(tt.wantName, cfg.Name)
			req.Equal(tt.wantReadOnly, cfg.ReadOnly)
		})
	}
}

func TestParseFlags_NameFromEnvironment(t *testing.T) {
	cfg := defaultConfig()
	cfg.Name = "from-env"
	var output bytes.Buffer

	require.NoError(t, parseFlags(nil, &cfg, &output))
	require.Equal(t, "from-env", cfg.Name)
}

func TestParseFlags_MissingName(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no flags", args: nil},
		{name: "blank name", args: []string{"-n", "   "}},
		{name: "read-only still needs a name", args: []string{"-r"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			var output bytes.Buffer

			err := parseFlags(tt.args, &cfg, &output)

			require.ErrorIs(t, err, client.ErrEmptyName)
		})
	}
}

func TestParseFlags_InvalidPort(t *testing.T) {
	cfg := defaultConfig()
	var output bytes.Buffer

	err := parseFlags([]string{"--name", "bob", "--port", "-1"}, &cfg, &output)

	require.ErrorContains(t, err, "invalid port")
}
