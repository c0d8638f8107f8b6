package config

import (
	"net"
	"os"
	"strconv"
	"strings"

	"codeberg.org/mutker/hostwatch/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"
	DefaultListen   = "127.0.0.1:7341"

	configName = "hostwatch"
	envPrefix  = "HOSTWATCH"
	envConfig  = "HOSTWATCH_CONFIG"
)

type Config struct {
	LogLevel   string `mapstructure:"log_level"`
	Listen     string `mapstructure:"listen"`
	GPUSensors bool   `mapstructure:"gpu_sensors"`
	Metrics    bool   `mapstructure:"metrics"`
	PIDFile    bool   `mapstructure:"pid_file"`
}

// Load reads configuration from defaults, the config file, HOSTWATCH_*
// environment variables and the given command line arguments, in increasing
// order of precedence.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{envPrefix: envPrefix}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("listen", DefaultListen)
	v.SetDefault("gpu_sensors", true)
	v.SetDefault("metrics", true)
	v.SetDefault("pid_file", true)

	flags := pflag.NewFlagSet(configName, pflag.ContinueOnError)
	configFlag := flags.String("config", "", "Path to config file")
	flags.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	flags.String("listen", DefaultListen, "Address of the presentation bridge")
	flags.Bool("gpu-sensors", true, "Include NVIDIA GPU temperatures")
	flags.Bool("metrics", true, "Expose Prometheus metrics on /metrics")
	flags.Bool("pid-file", true, "Refuse to start when another instance is running")

	if err := flags.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrParseFlags, err)
	}

	for key, flag := range map[string]string{
		"log_level":   "log-level",
		"listen":      "listen",
		"gpu_sensors": "gpu-sensors",
		"metrics":     "metrics",
		"pid_file":    "pid-file",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	path := o.configPath
	if *configFlag != "" {
		path = *configFlag
	}
	if path == "" {
		path = os.Getenv(envConfig)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath("/etc/hostwatch")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/hostwatch")
		}
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errFactory.Wrap(errors.ErrReadConfig, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrUnmarshalConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !LogLevel(strings.ToLower(c.LogLevel)).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	_, port, err := net.SplitHostPort(c.Listen)
	if err != nil {
		return errFactory.WithData(errors.ErrInvalidListen, c.Listen)
	}
	if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		return errFactory.WithData(errors.ErrInvalidListen, c.Listen)
	}

	return nil
}

func (c *Config) GetLogLevel() string { return c.LogLevel }

func (c *Config) GetListenAddress() string { return c.Listen }

func (c *Config) IsGPUSensorsEnabled() bool { return c.GPUSensors }

func (c *Config) IsMetricsEnabled() bool { return c.Metrics }

func (c *Config) IsPIDFileEnabled() bool { return c.PIDFile }
