// Package config holds server configuration values and the loader that
// resolves them from defaults, file and environment.
package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// DatabasePath locates the world-definition catalog.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	// DefaultWorld is joined when a client names no world.
	DefaultWorld string `mapstructure:"default_world" yaml:"default_world"`

	// DefaultRenderRadius applies when a client declares none; MaxRenderRadius
	// caps whatever the client declares.
	DefaultRenderRadius int `mapstructure:"default_render_radius" yaml:"default_render_radius"`
	MaxRenderRadius     int `mapstructure:"max_render_radius" yaml:"max_render_radius"`

	// OutboundBuffer sizes each session's broadcast channel. A full buffer
	// drops broadcast copies for that session instead of stalling the broker.
	OutboundBuffer int `mapstructure:"outbound_buffer" yaml:"outbound_buffer"`

	// ConnectsPerMinute limits WebSocket accepts; zero disables the limit.
	ConnectsPerMinute int `mapstructure:"connects_per_minute" yaml:"connects_per_minute"`

	// JWTSecret enables bearer-token checks at the transport edge when set.
	// Tokens are issued upstream; this server only validates them.
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:                ":4000",
		ReadHeaderTimeout:   5 * time.Second,
		ShutdownTimeout:     5 * time.Second,
		LogLevel:            "info",
		DatabasePath:        "minevox.db",
		DefaultWorld:        "testbed",
		DefaultRenderRadius: 8,
		MaxRenderRadius:     16,
		OutboundBuffer:      16,
		ConnectsPerMinute:   240,
	}
}
