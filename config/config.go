// Package config loads the agent configuration from TOML files.
package config

//go:generate errtrace -w .

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"braces.dev/errtrace"
	"github.com/BurntSushi/toml"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghettovoice/sipua/auth"
	"github.com/ghettovoice/sipua/internal/errorutil"
	"github.com/ghettovoice/sipua/internal/log"
	"github.com/ghettovoice/sipua/metrics"
	"github.com/ghettovoice/sipua/sip"
	"github.com/ghettovoice/sipua/ua"
)

// ErrInvalidConfig is returned when the configuration can not be decoded or validated.
const ErrInvalidConfig errorutil.Error = "invalid config"

// Config is the agent configuration.
type Config struct {
	Target     sip.NameAddr
	Contact    sip.NameAddr
	Username   string
	Realm      string
	Password   string
	Expires    time.Duration
	MWIEnabled bool
	Timings    ua.TimingConfig

	LogFormat string
	LogLevel  slog.Level

	MetricsNamespace string
}

type fileConfig struct {
	Target     string        `toml:"target"`
	Contact    string        `toml:"contact"`
	Username   string        `toml:"username"`
	Realm      string        `toml:"realm"`
	Password   string        `toml:"password"`
	Expires    string        `toml:"expires"`
	MWIEnabled bool          `toml:"mwi_enabled"`
	Timings    fileTimings   `toml:"timings"`
	Log        fileLogConfig `toml:"log"`
	Metrics    fileMetrics   `toml:"metrics"`
}

type fileTimings struct {
	RegisterRetry       string `toml:"register_retry"`
	SubscribeRetry      string `toml:"subscribe_retry"`
	SubscriptionExpires string `toml:"subscription_expires"`
}

type fileLogConfig struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

type fileMetrics struct {
	Namespace string `toml:"namespace"`
}

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return errtrace.Wrap2(Parse(data))
}

// Parse decodes and validates the TOML configuration.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidConfig, err))
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidConfig, "unknown keys %s", strings.Join(names, ", ")))
	}

	cfg := &Config{
		Username:         strings.TrimSpace(raw.Username),
		Realm:            strings.TrimSpace(raw.Realm),
		Password:         raw.Password,
		MWIEnabled:       true,
		LogFormat:        strings.TrimSpace(raw.Log.Format),
		MetricsNamespace: strings.TrimSpace(raw.Metrics.Namespace),
	}
	if meta.IsDefined("mwi_enabled") {
		cfg.MWIEnabled = raw.MWIEnabled
	}

	var errs []error
	if cfg.Target, err = parseAddr("target", raw.Target); err != nil {
		errs = append(errs, err)
	}
	if cfg.Contact, err = parseAddr("contact", raw.Contact); err != nil {
		errs = append(errs, err)
	}
	if cfg.Expires, err = parseDuration("expires", raw.Expires); err != nil {
		errs = append(errs, err)
	}

	regRetry, err := parseDuration("timings.register_retry", raw.Timings.RegisterRetry)
	if err != nil {
		errs = append(errs, err)
	}
	subRetry, err := parseDuration("timings.subscribe_retry", raw.Timings.SubscribeRetry)
	if err != nil {
		errs = append(errs, err)
	}
	subExp, err := parseDuration("timings.subscription_expires", raw.Timings.SubscriptionExpires)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Timings = ua.NewTimings(regRetry, subRetry, subExp)

	switch strings.ToLower(cfg.LogFormat) {
	case "", log.FormatConsole, log.FormatDev, log.FormatJSON, log.FormatText, log.FormatNone:
	default:
		errs = append(errs, errorutil.Errorf("log.format: unknown format %q", cfg.LogFormat))
	}
	if cfg.LogLevel, err = log.ParseLevel(strings.TrimSpace(raw.Log.Level)); err != nil {
		errs = append(errs, errorutil.Errorf("log.level: %v", err))
	}

	if cfg.Password != "" && cfg.Username == "" {
		cfg.Username = cfg.Target.User()
		if cfg.Username == "" {
			errs = append(errs, errorutil.Errorf("username: required with password"))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidConfig, err))
	}
	return cfg, nil
}

func parseAddr(key, s string) (sip.NameAddr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return sip.NameAddr{}, errorutil.Errorf("%s: required", key) //errtrace:skip
	}
	addr, err := sip.ParseNameAddr(s)
	if err != nil {
		return sip.NameAddr{}, errorutil.Errorf("%s: %v", key, err) //errtrace:skip
	}
	return addr, nil
}

func parseDuration(key, s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errorutil.Errorf("%s: %v", key, err) //errtrace:skip
	}
	if d < 0 {
		return 0, errorutil.Errorf("%s: negative duration %v", key, d) //errtrace:skip
	}
	return d, nil
}

// Credentials returns digest credentials or nil if no password is configured.
func (c *Config) Credentials() *auth.Credentials {
	if c.Password == "" {
		return nil
	}
	return auth.NewCredentials(c.Username, c.Realm, c.Password)
}

// Options returns agent options filled from the config.
// Sender, Dialogs, Scheduler and the other collaborators are left for the caller.
func (c *Config) Options() ua.Options {
	return ua.Options{
		Target:      c.Target,
		Contact:     c.Contact,
		Credentials: c.Credentials(),
		Expires:     c.Expires,
		Toggle:      ua.StaticToggle(c.MWIEnabled),
		Timings:     c.Timings,
	}
}

// Metrics creates a collector in the configured namespace and registers it with reg.
// It panics if the collector metrics are already registered with reg.
func (c *Config) Metrics(reg prometheus.Registerer) *metrics.Collector {
	return metrics.New(reg, c.MetricsNamespace)
}

// Logger builds the logger described by the log section.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	return errtrace.Wrap2(log.New(w, c.LogFormat, c.LogLevel))
}
