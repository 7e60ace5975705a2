package main

import (
	"bytes"
	"flag"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/relaychat/internal/server"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    int
		wantErr error
	}{
		{name: "no flags keeps the configured port", args: nil, want: server.DefaultPort},
		{name: "long flag", args: []string{"--port", "4000"}, want: 4000},
		{name: "short flag", args: []string{"-p", "4001"}, want: 4001},
		{name: "equals form", args: []string{"-port=4002"}, want: 4002},
		{name: "help", args: []string{"-h"}, wantErr: flag.ErrHelp},
		{name: "out of range", args: []string{"-p", "70000"}, wantErr: server.ErrInvalidPort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := server.DefaultConfig()
			var output bytes.Buffer

			err := parseFlags(tt.args, &cfg, &output)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, cfg.Port)
		})
	}
}

func TestParseFlags_Malformed(t *testing.T) {
	cfg := server.DefaultConfig()
	var output bytes.Buffer

	err := parseFlags([]string{"-p", "abc"}, &cfg, &output)

	require.Error(t, err)
	require.Contains(t, output.String(), "Usage: relay-server")
	require.Equal(t, server.DefaultPort, cfg.Port)
}
