// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"github.com/jessevdk/go-flags"
	"github.com/woozymasta/nadir/internal/logger"
	"github.com/woozymasta/nadir/internal/vars"
)

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Server    Server        `group:"Server Options" env-namespace:"NADIR"`
	Storage   Storage       `group:"Storage Options" namespace:"db" env-namespace:"NADIR_DB"`
	GeoIP     GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"NADIR_GEOIP"`
	RateLimit RateLimit     `group:"Rate Limit Options" namespace:"rate-limit" env-namespace:"NADIR_RATE_LIMIT"`
	A2S       A2S           `group:"A2S Options" namespace:"a2s" env-namespace:"NADIR_A2S"`
	Analytics Analytics     `group:"Analytics Options" namespace:"analytics" env-namespace:"NADIR_ANALYTICS"`
	Logger    logger.Config `group:"Logger Options" namespace:"log" env-namespace:"NADIR_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Server holds web server configuration.
type Server struct {
	// betteralign:ignore

	Address     string   `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"Server listen address" default:":8080"`
	AuthToken   string   `short:"t" long:"auth-token" env:"AUTH_TOKEN" description:"Admin authentication token"`
	AllowedApps []string `short:"a" long:"allowed-app" env:"ALLOWED_APPS" description:"List of allowed plugin application names" default:"Plan" env-delim:","`
	MaxBodySize int64    `long:"max-body-size" env:"MAX_BODY_SIZE" description:"Max body size for incoming requests" default:"2048"`
	TrustProxy  bool     `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
	ContentType string   `long:"expect-content-type" env:"EXPECT_CONTENT_TYPE" description:"Expected Content-Type header" default:"application/json"`
	Workers     int      `long:"workers" env:"WORKERS" description:"Background ingestion workers" default:"4"`
	QueueSize   int      `long:"queue-size" env:"QUEUE_SIZE" description:"Ingestion queue capacity" default:"1000"`
}

// Storage holds database configuration.
type Storage struct {
	// betteralign:ignore

	Path          string        `short:"d" long:"path" env:"PATH" description:"Path to SQLite database" default:"nadir.db"`
	PruneSamples  time.Duration `long:"prune-samples" description:"Delete performance samples older than the given age and exit" optional:"true" optional-value:"2160h"`
	CheckServers  bool          `long:"check-servers" description:"Probe all servers with A2S, mark unreachable ones as uninstalled and exit"`
	DeleteServer  string        `long:"delete-server" description:"Delete the server with the given UUID with its performance samples and exit"`
	GenerateCount int           `long:"gen-fake-data" hidden:"true"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	// betteralign:ignore

	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file" default:"nadir.mmdb"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// A2S holds Source Query protocol configuration.
type A2S struct {
	// betteralign:ignore

	Timeout    time.Duration `long:"timeout" env:"TIMEOUT" description:"Query timeout" default:"3s"`
	BufferSize uint16        `long:"buffer-size" env:"BUFFER_SIZE" description:"Response body buffer size" default:"1400"`
	Rate       float64       `long:"rate" env:"RATE" description:"Maximum A2S probes per second during server checks" default:"5"`
}

// RateLimit holds API rate limiting configuration.
type RateLimit struct {
	// betteralign:ignore

	HardLimitCount int           `long:"hard-count" env:"HARD_COUNT" description:"Hard IP limit: requests count" default:"120"`
	HardLimitWin   time.Duration `long:"hard-window" env:"HARD_WINDOW" description:"Hard IP limit: window duration" default:"1m"`
	SoftLimitDur   time.Duration `long:"soft" env:"SOFT" description:"Soft limit: ignore a TPS sample if the server reported within duration" default:"30s"`
}

// Analytics holds the parameters of the engagement computations.
type Analytics struct {
	// betteralign:ignore

	Timezone        string        `long:"timezone" env:"TIMEZONE" description:"IANA time zone used for day buckets" default:"UTC"`
	ActiveThreshold time.Duration `long:"active-threshold" env:"ACTIVE_THRESHOLD" description:"Minimum session length counted as activity" default:"30m"`
	ActiveLimit     float64       `long:"active-limit" env:"ACTIVE_LIMIT" description:"Minimum activity index of an active player" default:"1.0"`
	Window          time.Duration `long:"window" env:"WINDOW" description:"Default look-back window of reports" default:"720h"`
	RetentionDelay  time.Duration `long:"retention-delay" env:"RETENTION_DELAY" description:"Players registered within this period are not used to train retention" default:"720h"`
	LowTPS          float64       `long:"low-tps" env:"LOW_TPS" description:"TPS below this value counts as a low TPS spike" default:"10"`
	MaxSampleGap    time.Duration `long:"max-sample-gap" env:"MAX_SAMPLE_GAP" description:"Gap between samples counted as downtime" default:"3m"`
}

// Location resolves the configured time zone.
func (a Analytics) Location() (*time.Location, error) {
	return time.LoadLocation(a.Timezone)
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	cfg, err := parseArgs(os.Args[1:], flags.Default)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	return cfg
}

func parseArgs(args []string, options flags.Options) (*Config, error) {
	var cfg Config
	parser := flags.NewParser(&cfg, options)
	parser.NamespaceDelimiter = "-"

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that flags cannot express.
func (c *Config) Validate() error {
	if c.Server.AuthToken == "" && !c.maintenance() {
		return fmt.Errorf("required flag `-t, --auth-token' or environment variable `NADIR_AUTH_TOKEN` was not specified")
	}

	if _, err := c.Analytics.Location(); err != nil {
		return fmt.Errorf("invalid time zone %q: %w", c.Analytics.Timezone, err)
	}

	if c.Server.Workers < 1 {
		return fmt.Errorf("at least one worker is required, got %d", c.Server.Workers)
	}

	return nil
}

// maintenance reports whether a one-shot maintenance task was requested.
func (c *Config) maintenance() bool {
	return c.Storage.PruneSamples > 0 || c.Storage.CheckServers || c.Storage.DeleteServer != "" || c.Storage.GenerateCount > 0
}
