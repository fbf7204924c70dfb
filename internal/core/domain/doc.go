// Package domain defines the core domain model of the asset gateway.
//
// Everything here is a plain value without IO dependencies:
//
//   - Asset and AssetInput: the account record kept on the ledger
//   - Amount: canonical decimal form for monetary arguments
//   - Operation and Result: one ledger call and its outcome
//   - Errors: the structured error taxonomy shared by every layer
package domain
