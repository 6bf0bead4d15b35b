package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

const (
	// DefaultHost is the Nomad server queried when nothing else is configured.
	DefaultHost = "10.13.0.6"
	// DefaultPort is Nomad's HTTP API port, used when the host has none.
	DefaultPort = 4646
	// DefaultTimeout bounds every HTTP request made to the cluster.
	DefaultTimeout = 30 * time.Second
)

// Log types accepted by the Nomad logs endpoint.
const (
	LogTypeStderr = "stderr"
	LogTypeStdout = "stdout"
)

// Task selection policies.
const (
	PolicyLexical  = "lexical"
	PolicyDeclared = "declared"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvHost      = "NOMAD_HOST"
	EnvCertPath  = "NOMAD_CERT_PATH"
	EnvToken     = "NOMAD_TOKEN"
	EnvNamespace = "NOMAD_NAMESPACE"
	EnvRegion    = "NOMAD_REGION"
)

// Config is the fully resolved configuration of one run. It is built once
// at startup and passed down explicitly.
type Config struct {
	Host       string        `yaml:"host"`            // host, host:port or https URL
	CertPath   string        `yaml:"cert_path"`       // directory holding ca.pem, client.crt, client.key
	ServerName string        `yaml:"tls_server_name"` // expected name on the server certificate, optional
	Token      string        `yaml:"token"`           // ACL secret ID, optional
	Namespace  string        `yaml:"namespace"`       // empty means the server default
	Region     string        `yaml:"region"`          // empty means the server's region
	Prefix     string        `yaml:"prefix"`          // job ID prefix filter
	LogType    string        `yaml:"log_type"`        // stderr or stdout
	TaskPolicy string        `yaml:"task_policy"`     // lexical or declared
	Timezone   string        `yaml:"timezone"`        // IANA name or "Local"
	Timeout    time.Duration `yaml:"timeout"`
	Verbose    bool          `yaml:"verbose"` // also print each allocation as JSON
	Logging    LoggingConfig `yaml:"logging"`
}

// Default returns the built-in configuration. The cert path default is
// resolved against the current user's home directory.
func Default() (*Config, error) {
	certPath, err := DefaultCertPath()
	if err != nil {
		return nil, err
	}
	return &Config{
		Host:       DefaultHost,
		CertPath:   certPath,
		LogType:    LogTypeStderr,
		TaskPolicy: PolicyLexical,
		Timezone:   "Local",
		Timeout:    DefaultTimeout,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}, nil
}

// ApplyEnv overrides fields from the environment. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Host, EnvHost)
	set(&c.CertPath, EnvCertPath)
	set(&c.Token, EnvToken)
	set(&c.Namespace, EnvNamespace)
	set(&c.Region, EnvRegion)
}

// Finalize expands the cert path and validates the result, returning all
// problems at once.
func (c *Config) Finalize() error {
	expanded, err := ExpandPath(c.CertPath)
	if err != nil {
		return err
	}
	c.CertPath = expanded

	var result *multierror.Error
	for _, e := range c.Validate() {
		result = multierror.Append(result, e)
	}
	if result != nil {
		result.ErrorFormat = joinErrors
	}
	return result.ErrorOrNil()
}

// joinErrors renders aggregated validation errors on one line.
func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Address returns the https URL of the Nomad API. A bare host gets the
// https scheme and, when it has no port, DefaultPort.
func (c *Config) Address() (string, error) {
	raw := strings.TrimSpace(c.Host)
	if raw == "" {
		return "", fmt.Errorf("host is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", c.Host, err)
	}
	if u.Scheme != "https" {
		return "", fmt.Errorf("scheme %q not allowed, TLS is required", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid host %q: missing hostname", c.Host)
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(DefaultPort))
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String(), nil
}

// Location returns the time zone used to render submission times.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
