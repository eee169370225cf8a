// Package config defines the build configuration and the merge pipeline
// inputs: builtin defaults, the discovered config file, and CLI options.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitepress/internal/blog"
	"git.home.luguber.info/inful/sitepress/internal/plugin"
	"git.home.luguber.info/inful/sitepress/internal/search"
)

// ConfigFileNames are the recognized config file names, checked in order at
// each directory on the upward search path.
var ConfigFileNames = []string{"sitepress.yaml", "sitepress.yml"}

// Config is the build configuration. It is assembled incrementally by the
// option resolver and immutable once resolution finishes.
type Config struct {
	Src       string `yaml:"src"`
	Dst       string `yaml:"dst"`
	Title     string `yaml:"title"`
	BaseURL   string `yaml:"baseURL"`
	FQDN      string `yaml:"fqdn"`
	Watch     bool   `yaml:"watch"`
	Port      int    `yaml:"port"`
	Open      bool   `yaml:"open"`
	JSON      bool   `yaml:"json"`
	Static    bool   `yaml:"static"`
	Publish   bool   `yaml:"publish"`
	GithubURL string `yaml:"githubURL"`
	Domain    string `yaml:"domain"`
	Generator string `yaml:"generator"`

	Author   *Author              `yaml:"author,omitempty"`
	Plugins  []*plugin.Descriptor `yaml:"plugins,omitempty"`
	NavItems []NavItem            `yaml:"navItems,omitempty"`

	// Extra passes unrecognized keys through untouched.
	Extra map[string]any `yaml:",inline"`

	// Resolved outputs, attached by the option resolver.
	Messages    []string          `yaml:"-"`
	BlogPosts   []blog.Post       `yaml:"-"`
	SearchIndex []search.Document `yaml:"-"`
}

// Author identifies who publishes the site. Both fields are required for the
// publish path.
type Author struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// NavItem is one declared navigation entry. Target is rewritten against the
// finalized baseURL during resolution.
type NavItem struct {
	Name   string `yaml:"name"`
	Target string `yaml:"target"`
}

// Defaults returns the builtin configuration defaults.
func Defaults() Config {
	return Config{
		Src:       ".",
		Dst:       "_site",
		Title:     "Documentation Site",
		BaseURL:   "/",
		Port:      3000,
		Static:    true,
		Generator: "hugo",
	}
}

// FindConfigFile searches upward from startDir for a recognized config file.
// Pure function of the filesystem: no caching across builds.
func FindConfigFile(startDir string) (string, bool) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false
	}

	for {
		for _, name := range ConfigFileNames {
			path := filepath.Join(dir, name)
			if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
				return path, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// LoadFile merges the YAML config file at path into cfg. Keys absent from
// the file keep their current value, so loading over Defaults() gives the
// defaults < file precedence directly. Environment variables in the file
// body are expanded before parsing.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
