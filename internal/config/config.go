// Package config loads the simplemail configuration from defaults, an optional
// config file, environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lex00/simple-mail-api-go/internal/stack"
)

const (
	// AppName is the config file base name and config directory name.
	AppName = "simplemail"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "SIMPLEMAIL"
)

// Config holds the application configuration.
type Config struct {
	Account string `mapstructure:"account"`
	Region  string `mapstructure:"region"`

	Sender struct {
		Ref     string `mapstructure:"ref"`
		Mode    string `mapstructure:"mode"` // lookup, static or parameter
		Address string `mapstructure:"address"`
	} `mapstructure:"sender"`

	Definition string `mapstructure:"definition"`
	Wiring     string `mapstructure:"wiring"` // reference or export
	Output     string `mapstructure:"output"`
	Format     string `mapstructure:"format"`

	Debug     bool   `mapstructure:"debug"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// Environment returns the deployment environment.
func (c *Config) Environment() stack.Environment {
	return stack.Environment{Account: c.Account, Region: c.Region}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"account":     "account",
	"region":      "region",
	"sender-ref":  "sender.ref",
	"sender-mode": "sender.mode",
	"sender":      "sender.address",
	"definition":  "definition",
	"wiring":      "wiring",
	"output":      "output",
	"format":      "format",
	"debug":       "debug",
	"log-format":  "log_format",
	"log-file":    "log_file",
}

// Load reads the configuration. cfgFile names an explicit config file; when
// empty, simplemail.yaml is searched in the working directory and the user
// config directory. Flags that were set on the command line win over
// everything else.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		addSearchPaths(v)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// CDK-compatible environment variables.
	if err := v.BindEnv("account", EnvPrefix+"_ACCOUNT", "CDK_DEFAULT_ACCOUNT"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("region", EnvPrefix+"_REGION", "CDK_DEFAULT_REGION"); err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag --%s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		cfg.File = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings. Account and region are checked when a
// stack is created.
func (c *Config) Validate() error {
	switch c.Sender.Mode {
	case "lookup", "static", "parameter":
	default:
		return fmt.Errorf("invalid sender.mode %q (want lookup, static or parameter)", c.Sender.Mode)
	}
	switch c.Wiring {
	case "reference", "export":
	default:
		return fmt.Errorf("invalid wiring %q (want reference or export)", c.Wiring)
	}
	switch c.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("invalid format %q (want json or yaml)", c.Format)
	}
	switch c.LogFormat {
	case "human", "json":
	default:
		return fmt.Errorf("invalid log_format %q (want human or json)", c.LogFormat)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("account", "")
	v.SetDefault("region", "")

	v.SetDefault("sender.ref", "/ses/senderIdentity")
	v.SetDefault("sender.mode", "lookup")
	v.SetDefault("sender.address", "")

	v.SetDefault("definition", "./assets/stepFunctions/sendMail.json")
	v.SetDefault("wiring", "reference")
	v.SetDefault("output", "cdk.out")
	v.SetDefault("format", "json")

	v.SetDefault("debug", false)
	v.SetDefault("log_format", "human")
	v.SetDefault("log_file", "")
}

func addSearchPaths(v *viper.Viper) {
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", AppName))
	}
}
