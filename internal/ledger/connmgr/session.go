package connmgr

import (
	"context"

	"github.com/yndnr/assetgw-go/internal/core/domain"
	"github.com/yndnr/assetgw-go/internal/ledger/wallet"
)

// Session is an authenticated connection to the ledger network for one
// identity. Close must be idempotent.
type Session interface {
	Channel(name string) (Channel, error)
	Alive() bool
	Close() error
}

// Channel is a handle on one ledger channel. It is valid only while its
// Session is open.
type Channel interface {
	Contract(name string) (Contract, error)
}

// Contract invokes transactions of one deployed smart contract. It is
// valid only while its Session is open.
type Contract interface {
	// Submit endorses, orders and waits for commit of a transaction.
	Submit(ctx context.Context, name string, args []string) (*domain.Result, error)

	// Evaluate runs a query against a single peer without ordering.
	Evaluate(ctx context.Context, name string, args []string) (*domain.Result, error)
}

// Dialer opens sessions.
type Dialer interface {
	Dial(ctx context.Context, cred *wallet.Credential) (Session, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, cred *wallet.Credential) (Session, error)

// Dial implements Dialer.
func (f DialerFunc) Dial(ctx context.Context, cred *wallet.Credential) (Session, error) {
	return f(ctx, cred)
}

// Metrics receives session lifecycle events.
type Metrics interface {
	SessionOpened()
	SessionClosed(err error)
	PoolLookup(hit bool)
	PoolEvicted(reason string)
}

type nopMetrics struct{}

func (nopMetrics) SessionOpened()      {}
func (nopMetrics) SessionClosed(error) {}
func (nopMetrics) PoolLookup(bool)     {}
func (nopMetrics) PoolEvicted(string)  {}
