package storage

import (
	"fmt"
	"os"
)

// Providers supported by New.
const (
	ProviderLocal = "local"
	ProviderAzure = "azure"
)

// Config selects where resume, form, and result documents live.
// The local provider resolves relative keys against Root; the azure
// provider reads and writes blobs in ContainerName.
type Config struct {
	Provider         string `toml:"provider"`
	Root             string `toml:"root"`
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider         string
	Root             string
	ContainerName    string
	ConnectionString string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Root != "" {
		c.Root = overlay.Root
	}
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderLocal
	}
	if c.Root == "" {
		c.Root = "."
	}
	if c.ContainerName == "" {
		c.ContainerName = "applications"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(env.Provider, &c.Provider)
	set(env.Root, &c.Root)
	set(env.ContainerName, &c.ContainerName)
	set(env.ConnectionString, &c.ConnectionString)
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderLocal:
		return nil
	case ProviderAzure:
		if c.ConnectionString == "" {
			return fmt.Errorf("connection_string required for azure provider")
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
}
