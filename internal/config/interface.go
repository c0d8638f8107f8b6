package config

// Provider defines the interface for accessing configuration values.
// Values are immutable after loading. The sampling interval and event topic
// are fixed at build time and deliberately absent here.
type Provider interface {
	// GetLogLevel returns the configured logging level
	GetLogLevel() string

	// GetListenAddress returns the address of the presentation bridge
	GetListenAddress() string

	// IsGPUSensorsEnabled returns whether NVML GPU temperatures are sampled
	IsGPUSensorsEnabled() bool

	// IsMetricsEnabled returns whether Prometheus exposition is enabled
	IsMetricsEnabled() bool

	// IsPIDFileEnabled returns whether the single-instance guard is active
	IsPIDFileEnabled() bool
}

var _ Provider = (*Config)(nil)

// Option defines a configuration option that can be passed to Load
type Option func(*options) error

// options holds internal configuration options
type options struct {
	configPath string
	envPrefix  string
}

// WithConfigFile specifies an explicit configuration file path
func WithConfigFile(path string) Option {
	return func(o *options) error {
		o.configPath = path
		return nil
	}
}

// WithEnvPrefix specifies a custom environment variable prefix
// Default is "HOSTWATCH"
func WithEnvPrefix(prefix string) Option {
	return func(o *options) error {
		o.envPrefix = prefix
		return nil
	}
}

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// IsValid returns whether the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

// String implements the Stringer interface
func (l LogLevel) String() string {
	return string(l)
}
