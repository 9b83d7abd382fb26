package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File mirrors the subset of CLI options that can be persisted in a YAML
// config file. Zero values mean "not set" and leave the CLI default alone.
type File struct {
	Target      string            `yaml:"target"`
	URLs        []string          `yaml:"urls"`
	Crawl       *bool             `yaml:"crawl"`
	MaxDepth    int               `yaml:"max_depth"`
	MaxPages    int               `yaml:"max_pages"`
	Advanced    *bool             `yaml:"advanced"`
	Payloads    string            `yaml:"payloads"`
	Concurrency int               `yaml:"concurrency"`
	Timeout     time.Duration     `yaml:"timeout"`
	RateLimit   float64           `yaml:"rate_limit"`
	Proxy       string            `yaml:"proxy"`
	UserAgent   string            `yaml:"user_agent"`
	Headers     map[string]string `yaml:"headers"`
	Cookie      string            `yaml:"cookie"`

	Auth struct {
		LoginURL string `yaml:"login_url"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Browser  bool   `yaml:"browser"`
	} `yaml:"auth"`

	Output struct {
		Format  string `yaml:"format"`
		File    string `yaml:"file"`
		Report  string `yaml:"report"`
		Metrics string `yaml:"metrics_addr"`
	} `yaml:"output"`
}

// LoadFile reads and decodes a YAML config file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if f.MaxDepth < 0 || f.MaxPages < 0 || f.Concurrency < 0 {
		return nil, fmt.Errorf("parse config %s: negative limits are not allowed", path)
	}
	return &f, nil
}
