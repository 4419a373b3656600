package cli

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix is the prefix of every environment variable the CLI reads,
// e.g. PROTOSWIFT_WORKSPACE.
const envPrefix = "protoswift"

// envConfig holds settings that can come from the environment. Flags take
// precedence over them.
type envConfig struct {
	Workspace     string        `envconfig:"workspace"`
	BinDir        string        `envconfig:"bin_dir"`
	LogLevel      string        `envconfig:"log_level" default:"info"`
	LogFormat     string        `envconfig:"log_format" default:"text"`
	Workers       int           `envconfig:"workers"`
	ActionTimeout time.Duration `envconfig:"action_timeout"`
}

// readEnvConfig reads configuration variables from the environment.
func readEnvConfig() (envConfig, error) {
	var conf envConfig
	err := envconfig.Process(envPrefix, &conf)
	return conf, err
}
