// Package boilerplate carries the ambient concerns every persona service
// and cmd entry point shares: logging and process-address configuration,
// in the same field-group style the teacher uses for its own
// mainboilerplate package (go.gazette.dev/core/mainboilerplate, used by
// examples/word-count/wordcountctl/main.go as `mbp.LogConfig` /
// `mbp.AddressConfig`).
package boilerplate

import (
	"os"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"
)

// LogConfig is a go-flags option group controlling process-wide logging,
// mirroring mbp.LogConfig's shape.
type LogConfig struct {
	Level  string `long:"level" env:"LOG_LEVEL" default:"info" description:"Logging level: trace, debug, info, warn, error"`
	Format string `long:"format" env:"LOG_FORMAT" default:"text" description:"Logging format: text or json"`
}

// MustConfigure applies the LogConfig to the global logrus logger,
// exiting the process on an invalid level (a startup misconfiguration,
// the only class of fatal error spec.md §7 permits).
func (cfg LogConfig) MustConfigure() {
	var level, err = log.ParseLevel(cfg.Level)
	if err != nil {
		log.WithField("level", cfg.Level).Fatal("invalid --log.level")
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stderr)
}

// AddressConfig names the endpoint a vault process listens on, or a peer
// endpoint a CLI tool dials -- mirroring mbp.AddressConfig's role in
// wordcountctl/main.go.
type AddressConfig struct {
	Address string `long:"address" env:"ADDRESS" default:"localhost:0" description:"Address to bind or dial"`
}

// Must logs fields and exits 1 if err is non-nil, matching the
// mbp.Must(err, "...") idiom the teacher's CLI entry points use.
func Must(err error, message string) {
	if err != nil {
		log.WithError(err).Fatal(message)
	}
}

// MustParseArgs parses os.Args via parser, exiting 0 on a requested
// --help and 1 on a genuine parse error, mirroring mbp.MustParseArgs.
func MustParseArgs(parser *flags.Parser) {
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		Must(err, "failed to parse arguments")
	}
}
