package ua

import (
	"encoding/json"
	"log/slog"
	"time"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipua/auth"
	"github.com/ghettovoice/sipua/internal/errorutil"
	"github.com/ghettovoice/sipua/internal/log"
	"github.com/ghettovoice/sipua/sip"
)

// Default agent timings and limits.
const (
	// RegisterRetryDelay is the delay of the whole register cycle retry after failure or timeout.
	RegisterRetryDelay = time.Second
	// SubscribeRetryDelay is the delay of the subscribe retry after failure or timeout.
	SubscribeRetryDelay = 10 * time.Second
	// SubscriptionExpires is the requested MWI subscription lifetime.
	SubscriptionExpires = 184000 * time.Second
	// DefaultExpires is the registration lifetime used by [Agent.Register] before
	// any lifetime was accepted.
	DefaultExpires = time.Hour
	// MaxAttempts limits authentication retries per transaction and subscribe retries per cycle.
	MaxAttempts = 3
)

// MWIEvent is the event package of the MWI subscription (RFC 3842).
const MWIEvent = "message-summary"

// MWIContentType is the content type of the MWI NOTIFY body.
const MWIContentType = "application/simple-message-summary"

// TimingConfig holds agent timings.
// Zero value uses defaults [RegisterRetryDelay], [SubscribeRetryDelay], [SubscriptionExpires].
type TimingConfig struct {
	registerRetry,
	subscribeRetry,
	subscriptionExpires time.Duration
}

var defTimingCfg TimingConfig

// NewTimings creates a timing config. Zero values fall back to the defaults.
func NewTimings(registerRetry, subscribeRetry, subscriptionExpires time.Duration) TimingConfig {
	return TimingConfig{registerRetry, subscribeRetry, subscriptionExpires}
}

// RegisterRetry returns the delay passed to [Scheduler.ReRegister] after a failed registration.
// It is equal to [RegisterRetryDelay] if not specified.
func (c TimingConfig) RegisterRetry() time.Duration {
	if c.registerRetry <= 0 {
		return RegisterRetryDelay
	}
	return c.registerRetry
}

// SubscribeRetry returns the delay before the subscribe retry.
// It is equal to [SubscribeRetryDelay] if not specified.
func (c TimingConfig) SubscribeRetry() time.Duration {
	if c.subscribeRetry <= 0 {
		return SubscribeRetryDelay
	}
	return c.subscribeRetry
}

// SubscriptionExpires returns the requested subscription lifetime.
// It is equal to [SubscriptionExpires] if not specified.
func (c TimingConfig) SubscriptionExpires() time.Duration {
	if c.subscriptionExpires <= 0 {
		return SubscriptionExpires
	}
	return c.subscriptionExpires
}

type timingConfigData struct {
	RegisterRetry       time.Duration `json:"register_retry"`
	SubscribeRetry      time.Duration `json:"subscribe_retry"`
	SubscriptionExpires time.Duration `json:"subscription_expires"`
}

// MarshalJSON implements [json.Marshaler].
func (c TimingConfig) MarshalJSON() ([]byte, error) {
	return errtrace.Wrap2(json.Marshal(timingConfigData{
		RegisterRetry:       c.RegisterRetry(),
		SubscribeRetry:      c.SubscribeRetry(),
		SubscriptionExpires: c.SubscriptionExpires(),
	}))
}

// UnmarshalJSON implements [json.Unmarshaler].
func (c *TimingConfig) UnmarshalJSON(data []byte) error {
	var d timingConfigData
	if err := json.Unmarshal(data, &d); err != nil {
		return errtrace.Wrap(err)
	}
	*c = NewTimings(d.RegisterRetry, d.SubscribeRetry, d.SubscriptionExpires)
	return nil
}

// Options are the agent options.
type Options struct {
	// Target is the address of record being registered, the registrar URI is derived from it.
	Target sip.NameAddr
	// Contact is the local contact address bound by the registration.
	Contact sip.NameAddr
	// Credentials answer digest challenges. If nil, challenges fail the transaction.
	Credentials *auth.Credentials
	// Expires is the initial registration lifetime used by [Agent.Register].
	// If zero, [DefaultExpires] is used.
	Expires time.Duration
	// Sender submits REGISTER transactions. Required.
	Sender TransactionSender
	// Dialogs creates MWI subscription dialogs. If nil, MWI is disabled.
	Dialogs DialogFactory
	// Scheduler re-arms periodic registration. If nil, re-registration requests are dropped.
	Scheduler Scheduler
	// Toggle enables MWI subscription. If nil, MWI is enabled whenever Dialogs is set.
	Toggle FeatureToggle
	// Listener receives agent notifications. Optional.
	Listener Listener
	// Metrics collects agent statistics. Optional.
	Metrics Metrics
	// Timings is the agent timing config. If zero, the defaults are used.
	Timings TimingConfig
	// Log is the logger used by the agent.
	// If nil, the [log.Default] is used.
	Log *slog.Logger
}

// Validate checks the mandatory options.
func (o *Options) Validate() error {
	if o == nil {
		return errtrace.Wrap(errorutil.NewInvalidArgumentError("nil options"))
	}
	var errs []error
	if o.Target.IsZero() {
		errs = append(errs, errorutil.Errorf("empty target"))
	}
	if o.Contact.IsZero() {
		errs = append(errs, errorutil.Errorf("empty contact"))
	}
	if o.Sender == nil {
		errs = append(errs, errorutil.Errorf("nil transaction sender"))
	}
	if o.Expires < 0 {
		errs = append(errs, errorutil.Errorf("negative expires %v", o.Expires))
	}
	if err := errorutil.JoinPrefix("invalid agent options", errs...); err != nil {
		return errtrace.Wrap(errorutil.NewInvalidArgumentError(err))
	}
	return nil
}

func (o *Options) expires() time.Duration {
	if o.Expires == 0 {
		return DefaultExpires
	}
	return o.Expires
}

func (o *Options) scheduler() Scheduler {
	if o.Scheduler == nil {
		return noopScheduler{}
	}
	return o.Scheduler
}

func (o *Options) toggle() FeatureToggle {
	if o.Toggle == nil {
		return StaticToggle(o.Dialogs != nil)
	}
	return o.Toggle
}

func (o *Options) listener() Listener {
	if o.Listener == nil {
		return noopListener{}
	}
	return o.Listener
}

func (o *Options) metrics() Metrics {
	if o.Metrics == nil {
		return noopMetrics{}
	}
	return o.Metrics
}

func (o *Options) log() *slog.Logger {
	if o.Log == nil {
		return log.Default()
	}
	return o.Log
}
