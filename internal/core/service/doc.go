// Package service translates asset requests into ledger operations.
//
// AssetService builds domain.Operation values with the contract's fixed
// positional argument order and canonical decimal amounts, dispatches
// them through the transaction gateway and shapes the results for the
// HTTP layer. It holds no state of its own.
package service
