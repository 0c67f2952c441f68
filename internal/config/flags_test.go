package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetAddress_SetValid(t *testing.T) {
	tests := []struct {
		in       string
		wantHost string
		wantPort int
	}{
		{"localhost:8080", "localhost", 8080},
		{"127.0.0.1:9090", "127.0.0.1", 9090},
		{":8080", "", 8080},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var a NetAddress
			require.NoError(t, a.Set(tt.in))
			assert.Equal(t, tt.wantHost, a.Host)
			assert.Equal(t, tt.wantPort, a.Port)
		})
	}
}

func TestNetAddress_SetInvalid(t *testing.T) {
	tests := []string{
		"no-port",
		"host:port",
		"host:0",
		"host:-1",
		"not an ip:8080",
	}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			var a NetAddress
			assert.Error(t, a.Set(in))
		})
	}
}

func TestNetAddress_String(t *testing.T) {
	assert.Equal(t, "", (&NetAddress{}).String())
	assert.Equal(t, "localhost:8080", (&NetAddress{Host: "localhost", Port: 8080}).String())
}
