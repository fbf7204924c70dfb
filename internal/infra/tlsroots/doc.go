// Package tlsroots manages TLS material.
//
//   - roots.go: trust-root pools for outbound connections to ledger peers
//   - watcher.go: hot-reloaded server key pair for the HTTP listener
package tlsroots
