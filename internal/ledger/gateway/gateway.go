// Package gateway dispatches asset operations to the ledger.
//
// A dispatch opens a session through the connection manager, invokes one
// contract transaction (submit for mutating operations, evaluate for
// queries) and maps whatever went wrong onto the domain error taxonomy.
// The whole dispatch, session setup included, is bounded by a timeout.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yndnr/assetgw-go/internal/core/domain"
	"github.com/yndnr/assetgw-go/internal/ledger/connmgr"
)

// DefaultDispatchTimeout bounds a dispatch when Config leaves it unset.
const DefaultDispatchTimeout = 60 * time.Second

// SessionRunner scopes a ledger session to a callback.
type SessionRunner interface {
	WithSession(ctx context.Context, credentialName, channelName, contractName string, fn connmgr.Func) error
}

// Metrics receives one observation per finished dispatch.
type Metrics interface {
	ObserveDispatch(operation, outcome string, elapsed time.Duration)
}

// Config names the ledger target.
type Config struct {
	// Identity is the wallet label used when a dispatch names none.
	Identity string
	Channel  string
	Contract string

	DispatchTimeout time.Duration
}

// Gateway dispatches operations.
type Gateway struct {
	sessions SessionRunner
	cfg      Config
	logger   *slog.Logger
	metrics  Metrics
	onState  func(op string, s State)
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(g *Gateway) {
		if m != nil {
			g.metrics = m
		}
	}
}

// WithStateHook registers fn to observe every state transition.
func WithStateHook(fn func(op string, s State)) Option {
	return func(g *Gateway) { g.onState = fn }
}

// New creates a Gateway.
func New(sessions SessionRunner, cfg Config, opts ...Option) *Gateway {
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = DefaultDispatchTimeout
	}
	g := &Gateway{
		sessions: sessions,
		cfg:      cfg,
		logger:   slog.Default(),
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// DefaultIdentity returns the identity used when none is given.
func (g *Gateway) DefaultIdentity() string {
	return g.cfg.Identity
}

// Dispatch runs op as the default identity.
func (g *Gateway) Dispatch(ctx context.Context, op domain.Operation) (*domain.Result, error) {
	return g.DispatchAs(ctx, "", op)
}

// DispatchAs runs op as identity, or as the default identity when
// identity is empty.
func (g *Gateway) DispatchAs(ctx context.Context, identity string, op domain.Operation) (*domain.Result, error) {
	if err := op.Validate(); err != nil {
		g.metrics.ObserveDispatch(op.Name, Outcome(err), 0)
		return nil, err
	}
	if identity == "" {
		identity = g.cfg.Identity
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, g.cfg.DispatchTimeout)
	defer cancel()

	log := g.logger.With("operation", op.Name, "mode", op.Mode(), "identity", identity)
	d := &dispatch{g: g, op: op.Name, log: log}

	d.enter(StateSessionOpening)

	var result *domain.Result
	err := g.sessions.WithSession(ctx, identity, g.cfg.Channel, g.cfg.Contract,
		func(ctx context.Context, contract connmgr.Contract) error {
			d.enter(StateSessionReady)
			d.enter(StateInvoking)

			var err error
			if op.Mutating {
				result, err = contract.Submit(ctx, op.Name, op.Args)
			} else {
				result, err = contract.Evaluate(ctx, op.Name, op.Args)
			}
			if err != nil {
				d.enter(StateFailed)
				return err
			}
			d.enter(StateSucceeded)
			return nil
		})
	reached := d.state
	if err != nil && reached < StateFailed {
		d.enter(StateFailed)
	}
	// Every dispatch ends closed, including those whose session never
	// got past opening.
	d.enter(StateSessionClosed)

	elapsed := time.Since(start)
	if err != nil {
		err = g.classify(ctx, op, reached, err)
		g.metrics.ObserveDispatch(op.Name, Outcome(err), elapsed)
		log.Warn("ledger dispatch failed",
			"code", domain.GetErrorCode(err),
			"elapsed", elapsed,
			"error", err)
		return nil, err
	}

	if result == nil {
		result = &domain.Result{}
	}
	g.metrics.ObserveDispatch(op.Name, OutcomeSucceeded, elapsed)
	log.Info("ledger dispatch succeeded",
		"tx_id", result.TransactionID,
		"elapsed", elapsed)
	return result, nil
}

// classify maps err onto the domain taxonomy. reached is the furthest
// state the dispatch got to before it failed.
func (g *Gateway) classify(ctx context.Context, op domain.Operation, reached State, err error) error {
	timedOut := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
	canceled := errors.Is(err, context.Canceled)

	uncertain := op.Mutating && reached >= StateInvoking && (timedOut || canceled)

	if de, ok := domain.AsDomainError(err); ok {
		if uncertain && de.Code == domain.ErrChannelUnreachable.Code {
			return uncertainErr(op, err)
		}
		return err
	}

	switch {
	case uncertain:
		return uncertainErr(op, err)
	case timedOut || canceled:
		return domain.ErrChannelUnreachable.
			WithDetailsf("ledger did not respond within %s", g.cfg.DispatchTimeout).
			WithCause(err)
	case reached >= StateInvoking:
		return domain.ErrTransactionFailed.WithCause(err)
	default:
		return domain.ErrInternalServer.WithCause(err)
	}
}

func uncertainErr(op domain.Operation, cause error) error {
	return domain.ErrTransactionUncertain.
		WithDetailsf("%s did not confirm before the dispatch ended", op.Name).
		WithCause(cause)
}

type dispatch struct {
	g     *Gateway
	op    string
	log   *slog.Logger
	state State
}

func (d *dispatch) enter(s State) {
	d.log.Debug("dispatch state", "from", d.state, "to", s)
	d.state = s
	if d.g.onState != nil {
		d.g.onState(d.op, s)
	}
}

type nopMetrics struct{}

func (nopMetrics) ObserveDispatch(string, string, time.Duration) {}
