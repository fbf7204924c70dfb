// Package connmgr scopes ledger sessions to a unit of work.
//
// Manager.WithSession resolves a wallet identity, opens (or checks out) a
// session for it, resolves the channel and contract, runs a callback and
// releases the session exactly once, whatever way the callback exits.
// Release errors are logged and counted but never returned to the caller.
//
// Sessions are not retried. The optional pool keeps idle sessions per
// identity and revalidates them on every checkout.
package connmgr
