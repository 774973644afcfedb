// Package flagx contains helpers for parsing a subset of command-line flags
// without clashing with flags owned by other components.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns a slice of command-line arguments that only contains
// the allowed flags (and their values) specified in allowedFlags.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      --config=conf.json
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			// the next token is the value unless it looks like another flag
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// ConfigFiles extracts the configuration file locations from args:
//
//	-c, -config   path to a JSON config file
//	-env          path to a dotenv file
//
// Other arguments are ignored. Missing flags yield empty strings.
func ConfigFiles(args []string) (jsonPath, envPath string) {
	filtered := FilterArgs(args, []string{"-c", "-config", "--config", "-env", "--env"})

	fs := flag.NewFlagSet("config-files", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&jsonPath, "config", "", "path to JSON config file")
	fs.StringVar(&jsonPath, "c", "", "path to JSON config file (short)")
	fs.StringVar(&envPath, "env", "", "path to dotenv file")
	_ = fs.Parse(filtered)

	return jsonPath, envPath
}
