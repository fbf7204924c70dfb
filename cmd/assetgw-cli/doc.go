// Package main provides the entry point for assetgw-cli.
//
// assetgw-cli calls the assetgw-server REST API and manages local
// wallets. Run without arguments for help, or use the shell command
// for interactive mode.
package main
