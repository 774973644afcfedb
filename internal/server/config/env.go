package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables recognised by parseEnv.
const (
	EnvHTTPAddr            = "ACCOUNTS_HTTP_ADDR"
	EnvGRPCAddr            = "ACCOUNTS_GRPC_ADDR"
	EnvDatabaseDSN         = "ACCOUNTS_DATABASE_DSN"
	EnvAccessTokenSecret   = "ACCOUNTS_ACCESS_TOKEN_SECRET"
	EnvRefreshTokenSecret  = "ACCOUNTS_REFRESH_TOKEN_SECRET"
	EnvAccessTokenTTL      = "ACCOUNTS_ACCESS_TOKEN_TTL"
	EnvRefreshTokenTTL     = "ACCOUNTS_REFRESH_TOKEN_TTL"
	EnvBcryptCost          = "ACCOUNTS_BCRYPT_COST"
	EnvAdminKey            = "ACCOUNTS_ADMIN_KEY"
	EnvLogLevel            = "ACCOUNTS_LOG_LEVEL"
	EnvHealthCheckInterval = "ACCOUNTS_HEALTH_CHECK_INTERVAL"
)

// parseEnv overlays values from the environment. If envFile is set it is
// loaded first and must exist; otherwise ./.env is loaded when present.
// Variables already set in the process environment win over the file.
// Malformed values panic, like a broken JSON config does.
func parseEnv(config *Config, envFile string) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			panic(fmt.Errorf("load env file %s: %w", envFile, err))
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Errorf("load .env: %w", err))
	}

	setString(&config.EndpointAddrHTTP, EnvHTTPAddr)
	setString(&config.EndpointAddrGRPC, EnvGRPCAddr)
	setString(&config.DatabaseDSN, EnvDatabaseDSN)
	setString(&config.AccessTokenSecret, EnvAccessTokenSecret)
	setString(&config.RefreshTokenSecret, EnvRefreshTokenSecret)
	setDuration(&config.AccessTokenValidityDuration, EnvAccessTokenTTL)
	setDuration(&config.RefreshTokenValidityDuration, EnvRefreshTokenTTL)
	setInt(&config.BcryptCost, EnvBcryptCost)
	setString(&config.AdminKey, EnvAdminKey)
	setString(&config.LogLevel, EnvLogLevel)
	setDuration(&config.HealthCheckInterval, EnvHealthCheckInterval)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("invalid %s: %w", key, err))
	}
	*dst = d
}

func setInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Errorf("invalid %s: %w", key, err))
	}
	*dst = n
}
