// Package config loads runtime configuration for the projectdesk client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   host:port of the auth/profile gRPC endpoint
//	-t int      per-call timeout for remote calls (seconds)
//	-d string   path of the local session cache database
//	-l string   log level (debug, info, warn, error)
//
// # JSON schema
//
// Durations accept either strings like "5s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "call_timeout": "5s",
//	  "database_path": "desk.db",
//	  "log_level": "info"
//	}
package config
