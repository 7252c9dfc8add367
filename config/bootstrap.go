// Package config provides the two configuration surfaces the core needs:
// a small bootstrap config loaded before anything else (package-level
// Bootstrap, via viper), and the opaque UI-owned settings store backing
// general.json (Store).
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/vireo-stream/hostcore/errors"
)

const envPrefix = "HOSTCORE"

// Bootstrap holds the handful of settings the process needs before it can
// even open its settings store: where to bind the control API, where the
// data directory lives, how verbose to log, and how often to re-query mDNS.
type Bootstrap struct {
	ControlAPIPort    int    `mapstructure:"control_api_port"`
	DataDir           string `mapstructure:"data_dir"`
	LogJSON           bool   `mapstructure:"log_json"`
	DiscoveryInterval int    `mapstructure:"discovery_interval_seconds"`
	WatchdogProcess   string `mapstructure:"watchdog_process"`
}

func setBootstrapDefaults(v *viper.Viper) {
	v.SetDefault("control_api_port", 51343)
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("log_json", false)
	v.SetDefault("discovery_interval_seconds", 60)
	v.SetDefault("watchdog_process", "")
}

// LoadBootstrap reads the bootstrap config with defaults, then file,
// then env precedence. configPath may be empty, in
// which case only defaults and environment variables apply.
func LoadBootstrap(configPath string) (*Bootstrap, error) {
	v := viper.New()
	setBootstrapDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.Wrapf(err, "read bootstrap config %s", configPath)
			}
		}
	}

	var b Bootstrap
	if err := v.Unmarshal(&b); err != nil {
		return nil, errors.Wrap(err, "unmarshal bootstrap config")
	}
	return &b, nil
}
