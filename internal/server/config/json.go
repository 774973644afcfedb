package config

import (
	"encoding/json"
	"os"

	"github.com/raselkhaanlab/accounts/internal/timex"
)

// JsonConfig is the on-disk JSON shape. Durations accept "15m"-style strings
// or integer nanoseconds (see timex.Duration). Absent fields keep the value
// set by earlier layers.
type JsonConfig struct {
	EndpointAddrHTTP             string          `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string          `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string          `json:"database_dsn"`
	AccessTokenSecret            string          `json:"access_token_secret"`
	RefreshTokenSecret           string          `json:"refresh_token_secret"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	BcryptCost                   int             `json:"bcrypt_cost"`
	AdminKey                     string          `json:"admin_key"`
	LogLevel                     string          `json:"log_level"`
	HealthCheckInterval          *timex.Duration `json:"health_check_interval"`
}

// parseJson loads path into config. An empty path is a no-op. An unreadable
// file or invalid JSON panics.
func parseJson(config *Config, path string) {
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlay(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	overlay(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.AccessTokenSecret, c.AccessTokenSecret)
	overlay(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	overlay(&config.AdminKey, c.AdminKey)
	overlay(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.HealthCheckInterval != nil {
		config.HealthCheckInterval = c.HealthCheckInterval.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
