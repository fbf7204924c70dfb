// Package ledgertest provides an in-memory ledger for tests.
//
// Ledger implements connmgr.Dialer and serves the asset contract with the
// same observable behavior as the deployed chaincode: CreateAsset
// overwrites, UpdateAsset fails for an unknown asset, reads of an unknown
// asset fail, and history lists every committed version oldest first.
// Amounts are stored exactly as the canonical strings passed in.
package ledgertest

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/assetgw-go/internal/core/domain"
	"github.com/yndnr/assetgw-go/internal/ledger/connmgr"
	"github.com/yndnr/assetgw-go/internal/ledger/wallet"
)

// Record is the stored form of an asset.
type Record struct {
	DealerID    string `json:"dealerID"`
	MSISDN      string `json:"msisdn"`
	MPIN        string `json:"mpin"`
	Balance     string `json:"balance"`
	Status      string `json:"status"`
	TransAmount string `json:"transAmount"`
	TransType   string `json:"transType"`
	Remarks     string `json:"remarks"`
}

// Ledger is an in-memory single-channel ledger.
type Ledger struct {
	channel  string
	contract string

	mu      sync.Mutex
	state   map[string][]byte
	history map[string][][]byte
	block   uint64

	dials  atomic.Int64
	closes atomic.Int64
	open   atomic.Int64

	dialErr  atomic.Pointer[error]
	closeErr atomic.Pointer[error]
	latency  atomic.Int64
}

var _ connmgr.Dialer = (*Ledger)(nil)

// New creates a ledger that hosts contract on channel.
func New(channel, contract string) *Ledger {
	return &Ledger{
		channel:  channel,
		contract: contract,
		state:    make(map[string][]byte),
		history:  make(map[string][][]byte),
	}
}

// FailDial makes every following Dial return err. Nil restores dialing.
func (l *Ledger) FailDial(err error) { l.dialErr.Store(&err) }

// FailClose makes every following session Close return err.
func (l *Ledger) FailClose(err error) { l.closeErr.Store(&err) }

// SetLatency delays every invocation by d, or until its context ends.
func (l *Ledger) SetLatency(d time.Duration) { l.latency.Store(int64(d)) }

// Dials returns how many sessions were opened.
func (l *Ledger) Dials() int64 { return l.dials.Load() }

// Closes returns how many sessions were closed.
func (l *Ledger) Closes() int64 { return l.closes.Load() }

// Open returns how many sessions are currently open.
func (l *Ledger) Open() int64 { return l.open.Load() }

// Dial implements connmgr.Dialer.
func (l *Ledger) Dial(ctx context.Context, cred *wallet.Credential) (connmgr.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p := l.dialErr.Load(); p != nil && *p != nil {
		return nil, *p
	}
	l.dials.Add(1)
	l.open.Add(1)
	return &session{l: l, label: cred.Label}, nil
}

// Put stores rec directly, as if committed.
func (l *Ledger) Put(rec Record) {
	data, _ := json.Marshal(rec)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commit(rec.DealerID, data)
}

func (l *Ledger) commit(key string, value []byte) uint64 {
	l.block++
	l.state[key] = value
	l.history[key] = append(l.history[key], value)
	return l.block
}

func (l *Ledger) wait(ctx context.Context) error {
	d := time.Duration(l.latency.Load())
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type session struct {
	l      *Ledger
	label  string
	closed atomic.Bool
}

func (s *session) Channel(name string) (connmgr.Channel, error) {
	if s.closed.Load() {
		return nil, domain.ErrSessionClosed
	}
	return &channel{s: s, name: name}, nil
}

func (s *session) Alive() bool { return !s.closed.Load() }

func (s *session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.l.closes.Add(1)
	s.l.open.Add(-1)
	if p := s.l.closeErr.Load(); p != nil {
		return *p
	}
	return nil
}

type channel struct {
	s    *session
	name string
}

func (c *channel) Contract(name string) (connmgr.Contract, error) {
	if c.s.closed.Load() {
		return nil, domain.ErrSessionClosed
	}
	return &contract{s: c.s, channel: c.name, name: name}, nil
}

type contract struct {
	s       *session
	channel string
	name    string
}

func (c *contract) check(ctx context.Context) error {
	if c.s.closed.Load() {
		return domain.ErrSessionClosed
	}
	if c.channel != c.s.l.channel {
		return domain.ErrContractNotFound.WithDetailsf("channel '%s' not found", c.channel)
	}
	if c.name != c.s.l.contract {
		return domain.ErrContractNotFound.WithDetailsf("chaincode %s not found", c.name)
	}
	return c.s.l.wait(ctx)
}

func (c *contract) Submit(ctx context.Context, name string, args []string) (*domain.Result, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}

	l := c.s.l
	l.mu.Lock()
	defer l.mu.Unlock()

	var rec Record
	switch name {
	case domain.OpCreateAsset, domain.OpUpdateAsset:
		if len(args) != 8 {
			return nil, rejected("incorrect number of params. Expected 8, received %d", len(args))
		}
		rec = Record{
			DealerID:    args[0],
			MSISDN:      args[1],
			MPIN:        args[2],
			Status:      args[3],
			TransType:   args[4],
			Remarks:     args[5],
			Balance:     args[6],
			TransAmount: args[7],
		}
		if name == domain.OpUpdateAsset {
			if _, ok := l.state[rec.DealerID]; !ok {
				return nil, rejected("asset %s does not exist", rec.DealerID)
			}
		}
	default:
		return nil, rejected("Function %s not found in contract SmartContract", name)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, rejected("failed to marshal asset: %v", err)
	}
	block := l.commit(rec.DealerID, data)

	return &domain.Result{
		TransactionID: txID(block),
		BlockNumber:   block,
	}, nil
}

func (c *contract) Evaluate(ctx context.Context, name string, args []string) (*domain.Result, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	if name != domain.OpReadAsset && name != domain.OpGetAssetHistory {
		return nil, rejected("Function %s not found in contract SmartContract", name)
	}
	if len(args) != 1 {
		return nil, rejected("incorrect number of params. Expected 1, received %d", len(args))
	}

	l := c.s.l
	l.mu.Lock()
	defer l.mu.Unlock()

	id := args[0]
	if name == domain.OpReadAsset {
		data, ok := l.state[id]
		if !ok {
			return nil, rejected("asset %s does not exist", id)
		}
		return &domain.Result{Payload: append([]byte(nil), data...)}, nil
	}

	// The contract returns a nil slice for a key it never saw, which
	// reaches the client as an empty payload.
	if len(l.history[id]) == 0 {
		return &domain.Result{}, nil
	}
	versions := make([]json.RawMessage, 0, len(l.history[id]))
	for _, v := range l.history[id] {
		versions = append(versions, v)
	}
	payload, err := json.Marshal(versions)
	if err != nil {
		return nil, rejected("failed to marshal history: %v", err)
	}
	return &domain.Result{Payload: payload}, nil
}

func rejected(format string, args ...any) error {
	return domain.ErrTransactionFailed.WithDetails(fmt.Sprintf(format, args...))
}

func txID(block uint64) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], block)
	sum := sha256.Sum256(b[:])
	return hex.EncodeToString(sum[:])
}
