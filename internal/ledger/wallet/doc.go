// Package wallet is the identity store of the asset gateway.
//
// A wallet maps an identity label (for example "appUser") to the X.509
// credential used to sign ledger transactions. Two backends exist:
//
//   - file: a directory of "<label>.id" JSON files, the layout written by
//     the Fabric SDK wallet tooling
//   - badger: the same JSON records kept in an embedded Badger database,
//     optionally sealed with a 32-byte key (pkg/crypto/adaptive)
//
// The gateway only ever borrows a Credential for the lifetime of one
// ledger session; it never writes credentials back.
package wallet
