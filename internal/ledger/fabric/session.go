package fabric

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/hyperledger/fabric-gateway/pkg/client"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"

	"github.com/yndnr/assetgw-go/internal/core/domain"
	"github.com/yndnr/assetgw-go/internal/ledger/connmgr"
)

// session owns one gRPC connection and the gateway bound to it.
type session struct {
	conn   *grpc.ClientConn
	gw     *client.Gateway
	closed atomic.Bool
}

var _ connmgr.Session = (*session)(nil)

func newSession(conn *grpc.ClientConn, gw *client.Gateway) *session {
	return &session{conn: conn, gw: gw}
}

func (s *session) Channel(name string) (connmgr.Channel, error) {
	if s.closed.Load() {
		return nil, domain.ErrSessionClosed
	}
	return &channel{s: s, name: name, network: s.gw.GetNetwork(name)}, nil
}

// Alive reports whether the session is open and its connection is not
// failing.
func (s *session) Alive() bool {
	if s.closed.Load() {
		return false
	}
	switch s.conn.GetState() {
	case connectivity.TransientFailure, connectivity.Shutdown:
		return false
	default:
		return true
	}
}

// Close releases the gateway and then the connection. The gateway does
// not own the connection, so both are closed. Later calls are no-ops.
func (s *session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return errors.Join(s.gw.Close(), s.conn.Close())
}

type channel struct {
	s       *session
	name    string
	network *client.Network
}

func (c *channel) Contract(name string) (connmgr.Contract, error) {
	if c.s.closed.Load() {
		return nil, domain.ErrSessionClosed
	}
	return &contract{
		s:        c.s,
		target:   c.name + "/" + name,
		contract: c.network.GetContract(name),
	}, nil
}

type contract struct {
	s        *session
	target   string
	contract *client.Contract
}

// Submit endorses, submits and waits for the commit status of name.
func (c *contract) Submit(ctx context.Context, name string, args []string) (*domain.Result, error) {
	if c.s.closed.Load() {
		return nil, domain.ErrSessionClosed
	}

	proposal, err := c.contract.NewProposal(name, client.WithArguments(args...))
	if err != nil {
		return nil, classify(err, c.target, stageEndorse)
	}
	txID := proposal.TransactionID()

	tx, err := proposal.EndorseWithContext(ctx)
	if err != nil {
		return nil, classify(err, c.target, stageEndorse)
	}

	commit, err := tx.SubmitWithContext(ctx)
	if err != nil {
		return nil, classify(err, c.target, stageSubmit)
	}

	status, err := commit.StatusWithContext(ctx)
	if err != nil {
		return nil, classify(err, c.target, stageCommitStatus)
	}
	if !status.Successful {
		return nil, domain.ErrTransactionFailed.
			WithDetailsf("transaction %s invalidated: %s", txID, status.Code.String())
	}

	return &domain.Result{
		Payload:       tx.Result(),
		TransactionID: txID,
		BlockNumber:   status.BlockNumber,
	}, nil
}

// Evaluate queries name on the gateway peer.
func (c *contract) Evaluate(ctx context.Context, name string, args []string) (*domain.Result, error) {
	if c.s.closed.Load() {
		return nil, domain.ErrSessionClosed
	}

	payload, err := c.contract.EvaluateWithContext(ctx, name, client.WithArguments(args...))
	if err != nil {
		return nil, classify(err, c.target, stageEvaluate)
	}
	return &domain.Result{Payload: payload}, nil
}
