// Package config defines the server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation before startup
//   - env.go: the PORT, CCP_PATH and WALLET_PATH variables of earlier
//     deployments, plus the key list for environment mapping
//
// Configuration is loaded via internal/infra/confloader.
package config
