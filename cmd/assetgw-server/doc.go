// Package main provides the entry point for assetgw-server.
//
// The server exposes the asset contract of a Hyperledger Fabric channel
// over REST:
//
//   - POST /asset, PUT /asset: submit CreateAsset and UpdateAsset
//   - GET /asset/{id}, GET /asset/{id}/history: evaluate reads
//   - GET /health, GET /ready, GET /metrics
//
// Usage:
//
//	assetgw-server [flags]
//	assetgw-server --config /path/to/assetgw.yaml
//
// Identities are resolved from a file or Badger wallet. Changes to a
// file wallet evict pooled sessions of the changed identity, and edits
// to the configuration file reapply the log level.
package main
