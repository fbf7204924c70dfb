// Package fabric is the Hyperledger Fabric driver for the connection
// manager.
//
// Dialer opens one gRPC connection to the gateway peer named by the
// network profile and binds a Fabric Gateway client to it for a wallet
// identity. Session, Channel and Contract wrap the SDK's gateway, network
// and contract handles, and every SDK error is mapped onto the domain
// taxonomy before it leaves the package.
package fabric
