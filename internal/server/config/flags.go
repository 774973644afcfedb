package config

import (
	"flag"
	"io"
	"time"

	"github.com/raselkhaanlab/accounts/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-g string   gRPC bind address (e.g. ":50051")
//	-d string   PostgreSQL DSN
//	-s string   access token HMAC secret
//	-k string   refresh token HMAC secret
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-b int      bcrypt cost
//	-x string   admin key
//	-l string   log level
//
// Unknown arguments are filtered out with flagx.FilterArgs first. A flag that
// fails to parse panics.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-k", "-t", "-r", "-b", "-x", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessTokenSecret, "s", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "k", config.RefreshTokenSecret, "refresh token secret")

	accessMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshMinutes := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.AdminKey, "x", config.AdminKey, "admin key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// only overwrite durations when given, so sub-minute values from other
	// layers survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessMinutes) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshMinutes) * time.Minute
		}
	})
}
