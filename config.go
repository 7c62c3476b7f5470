package devconnect

import (
	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

// Config holds auth and server options. Loaded once at startup; the
// signing key is read-only for the life of the process.
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetTokenHeader() string
	GetIssuer() string
}

// AppConfig is the environment-driven configuration for the binaries.
type AppConfig struct {
	SigningKey      string `env:"DEVCONNECT_SIGNING_KEY,required"`
	TokenExpiration int    `env:"DEVCONNECT_TOKEN_TTL_HOURS" envDefault:"100"`
	TokenHeader     string `env:"DEVCONNECT_TOKEN_HEADER" envDefault:"x-auth-token"`
	Issuer          string `env:"DEVCONNECT_ISSUER" envDefault:"devconnect"`
	DSN             string `env:"DEVCONNECT_DSN" envDefault:"file::memory:?cache=shared"`
	HTTPAddr        string `env:"DEVCONNECT_HTTP_ADDR" envDefault:":3000"`
	GithubClientID  string `env:"DEVCONNECT_GITHUB_CLIENT_ID"`
	GithubSecret    string `env:"DEVCONNECT_GITHUB_SECRET"`
	LoginRatePerMin int    `env:"DEVCONNECT_LOGIN_RATE_PER_MIN" envDefault:"10"`
	Debug           bool   `env:"DEVCONNECT_DEBUG" envDefault:"false"`
}

var _ Config = (*AppConfig)(nil)

// LoadConfig reads configuration from the environment.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to parse environment configuration")
	}
	return cfg, nil
}

func (c *AppConfig) GetSigningKey() string   { return c.SigningKey }
func (c *AppConfig) GetTokenExpiration() int { return c.TokenExpiration }
func (c *AppConfig) GetTokenHeader() string  { return c.TokenHeader }
func (c *AppConfig) GetIssuer() string       { return c.Issuer }

// GetDSN returns the storage connection string.
func (c *AppConfig) GetDSN() string { return c.DSN }

// GetHTTPAddr returns the listen address for the API server.
func (c *AppConfig) GetHTTPAddr() string { return c.HTTPAddr }
