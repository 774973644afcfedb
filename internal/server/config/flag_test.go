package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{
			"-a", ":9090", "-g", ":9091", "-d", "db", "-s", "access", "-k", "refresh",
			"-t", "5", "-r", "60", "-b", "12", "-x", "admin", "-l", "debug",
		}, expected: &Config{
			EndpointAddrHTTP:             ":9090",
			EndpointAddrGRPC:             ":9091",
			DatabaseDSN:                  "db",
			AccessTokenSecret:            "access",
			RefreshTokenSecret:           "refresh",
			AccessTokenValidityDuration:  5 * time.Minute,
			RefreshTokenValidityDuration: time.Hour,
			BcryptCost:                   12,
			AdminKey:                     "admin",
			LogLevel:                     "debug",
		}},
		{name: "unknown flags are ignored", args: []string{"-config", "x.json", "-d", "db", "-zzz", "1"},
			expected: &Config{DatabaseDSN: "db"}},
		{name: "bad int panics", args: []string{"-t", "soon"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config, tt.args) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config, tt.args) })
			}
		})
	}
}

func TestParseFlags_KeepsSubMinuteDurationsWhenAbsent(t *testing.T) {
	config := &Config{AccessTokenValidityDuration: 30 * time.Second}
	parseFlags(config, []string{"-a", ":1"})
	assert.Equal(t, 30*time.Second, config.AccessTokenValidityDuration)
}
