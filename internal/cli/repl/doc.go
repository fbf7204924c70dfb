// Package repl provides the interactive mode of assetgw-cli.
//
//   - repl.go: read loop, argument splitting and built-ins
//   - history.go: command history persisted to ~/.assetgw/history
//
// Each line is split like a shell would split it (single and double
// quotes, backslash escapes) and handed to an Executor.
package repl
