// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package config loads layered configuration: built-in defaults, then an
// optional YAML file, then environment variables. Environment always wins.
package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/meridian/internal/brief"
	"github.com/tomtom215/meridian/internal/detection"
	"github.com/tomtom215/meridian/internal/logging"
)

// Config is the root configuration for the server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	Detection DetectionConfig `koanf:"detection"`
	Brief     brief.Config    `koanf:"brief"`
	Logging   logging.Config  `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_requests"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// StoreConfig controls the embedded event store.
type StoreConfig struct {
	Path      string        `koanf:"path"`
	InMemory  bool          `koanf:"in_memory"`
	Retention time.Duration `koanf:"retention"`
}

// DetectionConfig holds the detector tuning plus the refresh cadence of the
// background scan.
type DetectionConfig struct {
	RefreshInterval time.Duration `koanf:"refresh_interval"`
	CellSizeDegrees float64       `koanf:"cell_size_degrees"`
	MinCells        int           `koanf:"min_cells"`
	MinCellEvents   int           `koanf:"min_cell_events"`
	MinStdDev       float64       `koanf:"min_std_dev"`
	ZElevated       float64       `koanf:"z_elevated"`
	ZSignificant    float64       `koanf:"z_significant"`
	ZCritical       float64       `koanf:"z_critical"`
}

// Detector converts the section into the detector's own config type.
func (d DetectionConfig) Detector() detection.Config {
	return detection.Config{
		CellSizeDegrees: d.CellSizeDegrees,
		MinCells:        d.MinCells,
		MinCellEvents:   d.MinCellEvents,
		MinStdDev:       d.MinStdDev,
		ZElevated:       d.ZElevated,
		ZSignificant:    d.ZSignificant,
		ZCritical:       d.ZCritical,
	}
}

// defaultConfig returns the built-in defaults. They are applied first and
// then overridden by the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            4326,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Store: StoreConfig{
			Path:      "/data/meridian",
			InMemory:  false,
			Retention: 7 * 24 * time.Hour,
		},
		Detection: detectionDefaults(),
		Brief:   brief.DefaultConfig(),
		Logging: logging.DefaultConfig(),
	}
}

func detectionDefaults() DetectionConfig {
	d := detection.DefaultConfig()
	return DetectionConfig{
		RefreshInterval: time.Minute,
		CellSizeDegrees: d.CellSizeDegrees,
		MinCells:        d.MinCells,
		MinCellEvents:   d.MinCellEvents,
		MinStdDev:       d.MinStdDev,
		ZElevated:       d.ZElevated,
		ZSignificant:    d.ZSignificant,
		ZCritical:       d.ZCritical,
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("store.path is required unless store.in_memory is set")
	}
	if c.Store.Retention <= 0 {
		return fmt.Errorf("store.retention must be positive, got %s", c.Store.Retention)
	}
	if c.Detection.RefreshInterval <= 0 {
		return fmt.Errorf("detection.refresh_interval must be positive, got %s", c.Detection.RefreshInterval)
	}
	if c.Detection.CellSizeDegrees <= 0 {
		return fmt.Errorf("detection.cell_size_degrees must be positive, got %g", c.Detection.CellSizeDegrees)
	}
	if len(c.Brief.Models) == 0 {
		return fmt.Errorf("brief.models must list at least one model")
	}
	return nil
}
