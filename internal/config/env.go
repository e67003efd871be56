// Package config resolves fz's runtime configuration: the recognized
// environment variables (envconfig-bound) and the `.fz/` project+user
// directory layout (models/calculators/algorithms), project winning over
// user, one descriptor per file.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/fz-run/fz/pkg/cerr"
)

// Env is the recognized environment variable set, prefixed "FZ_"
// (envconfig's default prefix-to-field mapping).
type Env struct {
	LogLevel           string        `envconfig:"LOG_LEVEL" default:"info"`
	MaxRetries         int           `envconfig:"MAX_RETRIES" default:"3"`
	MaxWorkers         int           `envconfig:"MAX_WORKERS" default:"0"` // 0: uncapped (bounded only by slot count)
	SSHKeepalive       time.Duration `envconfig:"SSH_KEEPALIVE" default:"30s"`
	SSHAutoAcceptHostK bool          `envconfig:"SSH_AUTO_ACCEPT_HOSTKEY" default:"false"`
	Interpreter        string        `envconfig:"INTERPRETER" default:"primary"`
	ShellPath          string        `envconfig:"SHELL_PATH"`
	RunTimeout         time.Duration `envconfig:"RUN_TIMEOUT" default:"0"` // 0: no default timeout
}

// LoadEnv binds Env from the process environment under the "FZ" prefix.
func LoadEnv() (*Env, error) {
	var e Env
	if err := envconfig.Process("fz", &e); err != nil {
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, "bind environment variables", err)
	}
	return &e, nil
}

// EffectiveTimeout resolves the timeout precedence: URI override > model > env
// default. Zero durations mean "unset" at each tier.
func EffectiveTimeout(uriTimeout, modelTimeout, envTimeout time.Duration) time.Duration {
	if uriTimeout > 0 {
		return uriTimeout
	}
	if modelTimeout > 0 {
		return modelTimeout
	}
	return envTimeout
}
