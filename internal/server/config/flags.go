package config

import (
	"flag"
	"os"
	"time"

	"finledger/internal/flagx"
)

// parseFlags overlays Config fields from command line flags. Unknown
// flags are filtered out so that test binaries can pass their own.
func parseFlags(config *Config) {
	allowedFlags := []string{"-a", "-d", "-s", "-t", "-e"}
	args := flagx.FilterArgs(os.Args[1:], allowedFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	addr := fs.String("a", "", "address and port to run server")
	dsn := fs.String("d", "", "database dsn")
	secret := fs.String("s", "", "secret key for signing tokens")
	tokenValidityMin := fs.Int("t", 0, "token validity in minutes")
	env := fs.String("e", "", "environment (development or production)")

	if err := fs.Parse(args); err != nil {
		return
	}

	if *addr != "" {
		config.EndpointAddr = *addr
	}
	if *dsn != "" {
		config.DatabaseDSN = *dsn
	}
	if *secret != "" {
		config.SecretKey = *secret
	}
	if *tokenValidityMin > 0 {
		config.TokenValidityDuration = time.Duration(*tokenValidityMin) * time.Minute
	}
	if *env != "" {
		config.Environment = *env
	}
}
