// Package command provides CLI command definitions for assetgw-cli.
//
//   - root.go: application, global flags, settings resolution
//   - asset.go: asset create, update, get and history over REST
//   - system.go: health, readiness and version
//   - wallet.go: local wallet management
//   - config.go: CLI preferences and server configuration checks
//   - shell.go: interactive mode
//
// Commands resolve their settings from flags, then ASSETGW_* variables,
// then ~/.assetgw/cli.yaml.
package command
