// Package server is the configuration of the core-compatible server, dhcore.
package server

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort     = "8080"
	DefaultLogLevel = "info"
	DefaultPageSize = 25
)

var ErrInvalidConfig = errors.New("server: config is invalid")

// Config of the server.
//
// Example:
//
//	port: "8080"
//	loglevel: debug
//	seed: ./projects   # project yaml files imported on start
//	pageSize: 25
type Config struct {
	Port     string
	LogLevel string

	// directory of project yaml files, imported on start. Empty for none.
	Seed string

	// default size of pages of list responses.
	PageSize int
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		Port     string `yaml:"port"`
		LogLevel string `yaml:"loglevel"`
		Seed     string `yaml:"seed,omitempty"`
		PageSize *int   `yaml:"pageSize,omitempty"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	c.Port = raw.Port
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || 65535 < p {
		return fmt.Errorf("%w: port should be a number in 1-65535: %s", ErrInvalidConfig, raw.Port)
	}

	c.LogLevel = raw.LogLevel
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}

	c.Seed = raw.Seed

	c.PageSize = DefaultPageSize
	if raw.PageSize != nil {
		if *raw.PageSize <= 0 {
			return fmt.Errorf("%w: pageSize should be positive: %d", ErrInvalidConfig, *raw.PageSize)
		}
		c.PageSize = *raw.PageSize
	}
	return nil
}

// Default is the config used without config file.
func Default() *Config {
	return &Config{Port: DefaultPort, LogLevel: DefaultLogLevel, PageSize: DefaultPageSize}
}

// Load config from a file.
func Load(filepath string) (*Config, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content)
}

func Unmarshal(conf []byte) (*Config, error) {
	out := Default()
	if err := yaml.Unmarshal(conf, out); err != nil {
		return nil, err
	}
	return out, nil
}
