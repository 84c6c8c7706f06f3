package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/projectdesk/internal/flagx"
)

// parseFlags populates Config fields from the short flags it owns; other
// arguments are filtered out first so unrelated flags do not fail parsing.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the auth server")
	timeout := fs.Int("t", int(cfg.CallTimeout.Seconds()), "remote call timeout (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "session cache database path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, []string{"-a", "-t", "-d", "-l"})); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.CallTimeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}
