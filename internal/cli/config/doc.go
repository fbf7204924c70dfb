// Package config holds assetgw-cli preferences (~/.assetgw/cli.yaml).
//
// Flags and ASSETGW_* environment variables override the file; the file
// overrides the built-in defaults.
package config
