// Package handler provides the HTTP endpoints of the asset gateway.
//
//   - asset.go: create, update, read and history of ledger assets
//   - health.go: liveness and readiness
//
// Every handler decodes the request, calls the asset service and writes
// either the success body or an {"error","code"} body whose status comes
// from a fixed code table.
package handler
