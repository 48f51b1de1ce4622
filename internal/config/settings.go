// Package config resolves bhub's on-disk locations and loads the optional
// settings file (~/.bhub/config.yaml).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the contents of config.yaml. Zero fields fall back to Defaults.
type Settings struct {
	// BaseURL is the catalog API root.
	BaseURL string `yaml:"base_url"`

	// InstallRoot is the directory projects are installed under.
	InstallRoot string `yaml:"install_root"`

	// PageSize is the number of projects requested per fetch.
	PageSize int `yaml:"page_size"`

	// Mode is the browse strategy: "paged" or "infinite".
	Mode string `yaml:"mode"`

	// SearchDelay is how long search input must be quiet before it is
	// committed.
	SearchDelay time.Duration `yaml:"search_delay"`

	// VerifyChecksums checks each downloaded file against its published
	// sha256. A pointer so an explicit false survives merging.
	VerifyChecksums *bool `yaml:"verify_checksums"`

	// UserAgent is sent with every request.
	UserAgent string `yaml:"user_agent"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `yaml:"timeout"`
}

// Built-in defaults.
const (
	DefaultBaseURL     = "https://badgehub.p1m.nl/api/v3"
	DefaultPageSize    = 20
	DefaultMode        = "paged"
	DefaultSearchDelay = time.Second
	DefaultTimeout     = 30 * time.Second
)

// Defaults returns the built-in settings. InstallRoot is resolved from the
// user's home directory.
func Defaults() (Settings, error) {
	root, err := DefaultInstallRoot()
	if err != nil {
		return Settings{}, err
	}
	verify := true
	return Settings{
		BaseURL:         DefaultBaseURL,
		InstallRoot:     root,
		PageSize:        DefaultPageSize,
		Mode:            DefaultMode,
		SearchDelay:     DefaultSearchDelay,
		VerifyChecksums: &verify,
		Timeout:         DefaultTimeout,
	}, nil
}

// Load reads the settings file at path and fills unset fields from Defaults.
// A missing file is not an error. An empty path means ConfigPath().
func Load(path string) (Settings, error) {
	s, err := Defaults()
	if err != nil {
		return Settings{}, err
	}
	if path == "" {
		if path, err = ConfigPath(); err != nil {
			return Settings{}, err
		}
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read config: %w", err)
	}
	var file Settings
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	s.merge(file)
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("config %s: %w", path, err)
	}
	return s, nil
}

// merge copies the non-zero fields of o into s.
func (s *Settings) merge(o Settings) {
	if o.BaseURL != "" {
		s.BaseURL = strings.TrimRight(o.BaseURL, "/")
	}
	if o.InstallRoot != "" {
		s.InstallRoot = o.InstallRoot
	}
	if o.PageSize != 0 {
		s.PageSize = o.PageSize
	}
	if o.Mode != "" {
		s.Mode = o.Mode
	}
	if o.SearchDelay != 0 {
		s.SearchDelay = o.SearchDelay
	}
	if o.VerifyChecksums != nil {
		v := *o.VerifyChecksums
		s.VerifyChecksums = &v
	}
	if o.UserAgent != "" {
		s.UserAgent = o.UserAgent
	}
	if o.Timeout != 0 {
		s.Timeout = o.Timeout
	}
}

// Validate rejects values no component can work with.
func (s Settings) Validate() error {
	if s.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", s.PageSize)
	}
	if s.Mode != "paged" && s.Mode != "infinite" {
		return fmt.Errorf("mode must be paged or infinite, got %q", s.Mode)
	}
	if s.SearchDelay < 0 || s.Timeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// Verify reports whether downloads are checked against their sha256.
func (s Settings) Verify() bool {
	return s.VerifyChecksums == nil || *s.VerifyChecksums
}
