// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the service configuration: a JSON file, then
// QRTRACK_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"

	"github.com/unixdj/qrtrack"
	"github.com/unixdj/qrtrack/internal/logger"
)

// QR holds image rendering defaults.
type QR struct {
	Size           int    `json:"size"`
	Margin         int    `json:"margin"`
	Level          string `json:"level"`
	Foreground     string `json:"foreground"`
	Background     string `json:"background"`
	DownloadSize   int    `json:"download_size"`
	DownloadMargin int    `json:"download_margin"`
	PreviewMargin  int    `json:"preview_margin"`
}

// Config is the service configuration.
type Config struct {
	BaseURL    string `json:"base_url"`    // base of tracking URLs
	Addr       string `json:"addr"`        // HTTP listen address
	DataFile   string `json:"data_file"`   // links file, clicks beside it
	LogLevel   string `json:"log_level"`   // debug, info, warn or error
	VisitorKey string `json:"visitor_key"` // key for visitor hashes
	QR         QR     `json:"qr"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		BaseURL:  "http://localhost:8080",
		Addr:     ":8080",
		DataFile: "qrtrack.json",
		LogLevel: "info",
		QR: QR{
			Size:           qr.DefaultSize,
			Margin:         qr.DefaultMargin,
			Level:          qr.DefaultLevel.String(),
			Foreground:     qr.DefaultForeground,
			Background:     qr.DefaultBackground,
			DownloadSize:   1000,
			DownloadMargin: 4,
			PreviewMargin:  4,
		},
	}
}

// Environment variables overriding the file.
const (
	EnvBaseURL    = "QRTRACK_BASE_URL"
	EnvAddr       = "QRTRACK_ADDR"
	EnvDataFile   = "QRTRACK_DATA"
	EnvLogLevel   = "QRTRACK_LOG_LEVEL"
	EnvVisitorKey = "QRTRACK_VISITOR_KEY"
)

// Load reads the configuration file at path over the defaults, applies
// environment overrides and validates the result.  A missing file, or
// an empty path, leaves the defaults in place.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return c, fmt.Errorf("config: %w", err)
		default:
			if err := json.Unmarshal(b, &c); err != nil {
				return c, fmt.Errorf("config: %s: %w", path, err)
			}
		}
	}
	c.applyEnv(os.LookupEnv)
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	for _, e := range []struct {
		name string
		dst  *string
	}{
		{EnvBaseURL, &c.BaseURL},
		{EnvAddr, &c.Addr},
		{EnvDataFile, &c.DataFile},
		{EnvLogLevel, &c.LogLevel},
		{EnvVisitorKey, &c.VisitorKey},
	} {
		if v, ok := lookup(e.name); ok {
			*e.dst = v
		}
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: base_url %q: not an absolute http(s) URL", c.BaseURL)
	}
	if c.Addr == "" {
		return errors.New("config: empty addr")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	for _, o := range []qr.Options{c.Options(), c.DownloadOptions(), c.PreviewOptions()} {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("config: qr: %w", err)
		}
	}
	return nil
}

// Level returns the configured error correction level.  An
// unparsable name yields an invalid Level, rejected by Validate.
func (c Config) Level() qr.Level {
	l, err := qr.ParseLevel(c.QR.Level)
	if err != nil {
		return -1
	}
	return l
}

// Options returns the default image options.
func (c Config) Options() qr.Options {
	return qr.Options{
		Size:       c.QR.Size,
		Margin:     c.QR.Margin,
		Level:      c.Level(),
		Foreground: c.QR.Foreground,
		Background: c.QR.Background,
	}
}

// DownloadOptions returns the options for downloadable images.
func (c Config) DownloadOptions() qr.Options {
	o := c.Options()
	o.Size, o.Margin = c.QR.DownloadSize, c.QR.DownloadMargin
	return o
}

// PreviewOptions returns the options for admin previews.
func (c Config) PreviewOptions() qr.Options {
	o := c.Options()
	o.Margin = c.QR.PreviewMargin
	return o
}

// Logger returns a logger at the configured level.
func (c Config) Logger() *logger.Logger {
	l, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		l = logger.Info
	}
	return logger.New(os.Stderr, l)
}
