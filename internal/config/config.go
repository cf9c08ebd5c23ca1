// Package config loads harness configuration from a YAML file and
// TESTBED_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/jbweber/testbed/internal/libvirt"
	"github.com/jbweber/testbed/internal/naming"
)

// EnvPrefix is the prefix for environment overrides, e.g. TESTBED_URI.
const EnvPrefix = "testbed"

// Config selects the endpoint and naming used by a harness.
type Config struct {
	// URI is the libvirt endpoint, e.g. test:///default or
	// qemu+tcp://hv1:16509/system.
	URI string `yaml:"uri" envconfig:"URI"`

	// Socket is the local libvirtd socket used for local URIs.
	Socket string `yaml:"socket,omitempty" envconfig:"SOCKET"`

	// Timeout bounds dialing the endpoint.
	Timeout time.Duration `yaml:"timeout,omitempty" envconfig:"TIMEOUT"`

	// Prefix namespaces every resource the harness creates.
	Prefix string `yaml:"prefix,omitempty" envconfig:"PREFIX"`

	// PoolPath is the target path for storage pools that do not set one.
	PoolPath string `yaml:"pool_path,omitempty" envconfig:"POOL_PATH"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		URI:      libvirt.TestURI,
		Socket:   libvirt.DefaultSocket,
		Timeout:  libvirt.DefaultTimeout,
		Prefix:   naming.DefaultPrefix,
		PoolPath: "/var/lib/libvirt/images",
	}
}

// Load builds a Config from path (optional) and the environment.
// Precedence: environment, then file, then defaults.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ApplyDefaults fills unset fields from Default.
func (c *Config) ApplyDefaults() {
	d := Default()
	if c.URI == "" {
		c.URI = d.URI
	}
	if c.Socket == "" {
		c.Socket = d.Socket
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.Prefix == "" {
		c.Prefix = d.Prefix
	}
	if c.PoolPath == "" {
		c.PoolPath = d.PoolPath
	}
}

// Validate checks the configuration for errors. It does not contact the
// endpoint.
func (c *Config) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("uri is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if err := naming.ValidateShort(c.Prefix); err != nil {
		return fmt.Errorf("prefix: %w", err)
	}
	if c.PoolPath != "" && c.PoolPath[0] != '/' {
		return fmt.Errorf("pool_path must be absolute: %q", c.PoolPath)
	}
	return nil
}

// SessionOptions returns the dial options for this configuration.
func (c *Config) SessionOptions() []libvirt.Option {
	return []libvirt.Option{
		libvirt.WithSocket(c.Socket),
		libvirt.WithTimeout(c.Timeout),
	}
}
