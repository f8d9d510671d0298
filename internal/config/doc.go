// Package config loads and validates configuration for the worship API.
//
// Values come from the environment. Load first reads optional .env.local and
// .env files with godotenv (never overriding variables already set), then
// parses everything into tagged structs with caarlos0/env.
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: port, timeouts, CORS origins, log level
//   - DatabaseConfig: SurrealDB connection settings
//   - JWTConfig: key paths, issuer, access and refresh lifetimes
//   - AuthConfig: self registration
//   - RateLimitConfig: limits and the memory or redis counter store
//   - StorageConfig: chord sheet storage (memory or S3 compatible)
//   - JobsConfig: background job intervals
//   - MetricsConfig: Prometheus endpoint
//
// Validate reports every problem at once, joined with errors.Join.
package config
