// Package output renders command results for assetgw-cli.
//
//   - formatter.go: Formatter interface and factory
//   - value.go: order-preserving JSON decoding shared by the formatters
//   - table.go: aligned columns for terminals
//   - json.go: indented JSON
//   - yaml.go: YAML via gopkg.in/yaml.v3
//   - spinner.go: progress animation while a submit waits for commit
//
// Ledger payloads arrive as raw JSON. The table and YAML formatters keep
// the key order and the exact numeric text of those payloads, so a
// balance of 100.10 is printed as 100.10.
package output
