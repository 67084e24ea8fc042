// Package config handles configuration loading for lemcom-directory.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from LEMCOM_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/lemcom/directory.yaml
//  3. ~/.config/lemcom/directory.yaml
//
// A path ending in .toml is read as TOML; anything else as YAML. Both formats
// use the same keys.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${LEMCOM_JWT_SECRET}"
//
// LEMCOM_DB_PATH, when set, replaces database.path after expansion.
//
// # Configuration Sections
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	  shutdown_timeout: "10s"
//
//	database:
//	  path: "/var/lib/lemcom/directory.db"
//
//	auth:
//	  jwt_secret: "${LEMCOM_JWT_SECRET}"  # optional, enables bearer tokens
//	  token_ttl: "24h"
//
//	tailscale:
//	  enabled: false
//	  hostname: "lemcom-directory"
//	  auth_key: "${TS_AUTHKEY}"
//	  https: true
//	  funnel: false
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
//	profanity:
//	  words: ["darn", "heck"]
//
// # Validation
//
// Load validates the HTTP address (unless Tailscale is enabled), the
// Tailscale hostname, the database path, the JWT secret length and the
// logging format. Duration strings use time.ParseDuration syntax.
package config
