package connmgr

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yndnr/assetgw-go/internal/core/domain"
	"github.com/yndnr/assetgw-go/internal/ledger/wallet"
)

// Func is the unit of work run against a resolved contract.
type Func func(ctx context.Context, contract Contract) error

// Manager opens and releases ledger sessions.
type Manager struct {
	store   wallet.Store
	dialer  Dialer
	logger  *slog.Logger
	metrics Metrics
	pool    *pool
	now     func() time.Time
	closed  atomic.Bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(mt Metrics) Option {
	return func(m *Manager) {
		if mt != nil {
			m.metrics = mt
		}
	}
}

// WithPool enables session reuse when cfg.Enabled is set.
func WithPool(cfg PoolConfig) Option {
	return func(m *Manager) {
		if cfg.Enabled {
			m.pool = newPool(cfg)
		}
	}
}

// New creates a Manager resolving identities from store and opening
// sessions through dialer.
func New(store wallet.Store, dialer Dialer, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		dialer:  dialer,
		logger:  slog.Default(),
		metrics: nopMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Pooled reports whether session reuse is enabled.
func (m *Manager) Pooled() bool {
	return m.pool != nil
}

// WithSession runs fn against contractName on channelName using the
// identity credentialName.
//
// The identity is resolved before anything is dialed, so an unknown
// identity returns domain.ErrIdentityNotFound without touching the
// network. The session is released exactly once after fn returns,
// panics, or fails to be reached; release failures never change the
// returned error.
func (m *Manager) WithSession(ctx context.Context, credentialName, channelName, contractName string, fn Func) error {
	switch {
	case strings.TrimSpace(credentialName) == "":
		return domain.ErrMissingArgument.WithDetails("identity name is required")
	case strings.TrimSpace(channelName) == "":
		return domain.ErrMissingArgument.WithDetails("channel name is required")
	case strings.TrimSpace(contractName) == "":
		return domain.ErrMissingArgument.WithDetails("contract name is required")
	case fn == nil:
		return domain.ErrInternalServer.WithDetails("nil session callback")
	}

	if m.closed.Load() {
		return domain.ErrSessionClosed
	}

	cred, err := m.resolve(ctx, credentialName)
	if err != nil {
		return err
	}

	ps, err := m.acquire(ctx, cred)
	if err != nil {
		return err
	}

	// reusable stays false unless fn returned without a connectivity
	// failure, so panics and broken sessions are closed instead of pooled.
	reusable := false
	defer func() { m.release(ps, reusable) }()

	ch, err := ps.sess.Channel(channelName)
	if err != nil {
		return classifyResolve(err, "channel", channelName)
	}

	contract, err := ch.Contract(contractName)
	if err != nil {
		return classifyResolve(err, "contract", contractName)
	}

	err = fn(ctx, contract)
	reusable = !errors.Is(err, domain.ErrChannelUnreachable)
	return err
}

func (m *Manager) resolve(ctx context.Context, label string) (*wallet.Credential, error) {
	cred, err := m.store.Resolve(ctx, label)
	if err == nil {
		return cred, nil
	}
	if domain.IsDomainError(err, "") {
		return nil, err
	}
	// A lookup cut short by the caller says nothing about the identity.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	return nil, domain.ErrIdentityInvalid.WithDetailsf("identity %q", label).WithCause(err)
}

func (m *Manager) acquire(ctx context.Context, cred *wallet.Credential) (*pooled, error) {
	if m.pool != nil {
		if ps := m.checkout(cred.Label); ps != nil {
			return ps, nil
		}
	}

	sess, err := m.dialer.Dial(ctx, cred)
	if err != nil {
		if domain.IsDomainError(err, "") {
			return nil, err
		}
		return nil, domain.ErrChannelUnreachable.WithCause(err)
	}
	m.metrics.SessionOpened()
	m.logger.Debug("ledger session opened", "identity", cred.Label, "pooled", m.pool != nil)

	return &pooled{label: cred.Label, sess: sess, created: m.now()}, nil
}

func (m *Manager) checkout(label string) *pooled {
	for {
		ps := m.pool.take(label)
		if ps == nil {
			m.metrics.PoolLookup(false)
			return nil
		}
		if ps.sess.Alive() && !m.pool.expired(ps, m.now()) {
			m.metrics.PoolLookup(true)
			return ps
		}
		m.discard(ps, EvictStale)
	}
}

func (m *Manager) release(ps *pooled, reusable bool) {
	if m.pool == nil {
		m.closeSession(ps)
		return
	}

	if !reusable {
		m.discard(ps, EvictBroken)
		return
	}
	if !ps.sess.Alive() || m.pool.expired(ps, m.now()) {
		m.discard(ps, EvictStale)
		return
	}
	if !m.pool.put(ps, m.closed.Load) {
		m.discard(ps, EvictOverflow)
	}
}

func (m *Manager) discard(ps *pooled, reason string) {
	m.metrics.PoolEvicted(reason)
	m.logger.Debug("pooled session evicted", "identity", ps.label, "reason", reason)
	m.closeSession(ps)
}

func (m *Manager) closeSession(ps *pooled) {
	err := ps.sess.Close()
	m.metrics.SessionClosed(err)
	if err != nil {
		m.logger.Warn("ledger session release failed",
			"identity", ps.label,
			"error", domain.ErrSessionRelease.WithCause(err))
		return
	}
	m.logger.Debug("ledger session closed", "identity", ps.label)
}

// Evict closes all idle sessions of identity label. Sessions in use are
// unaffected and will be closed, not pooled, only if they turn stale.
func (m *Manager) Evict(label string) int {
	if m.pool == nil {
		return 0
	}
	list := m.pool.remove(label)
	for _, ps := range list {
		m.discard(ps, EvictIdentity)
	}
	return len(list)
}

// IdleByIdentity returns idle pooled session counts per identity.
func (m *Manager) IdleByIdentity() map[string]int {
	if m.pool == nil {
		return map[string]int{}
	}
	return m.pool.counts()
}

// Close stops new sessions and closes every idle pooled session.
// Sessions in use are closed when their callbacks return.
func (m *Manager) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	if m.pool == nil {
		return nil
	}
	for _, ps := range m.pool.drain() {
		m.discard(ps, EvictShutdown)
	}
	return nil
}

func classifyResolve(err error, kind, name string) error {
	if domain.IsDomainError(err, "") {
		return err
	}
	return domain.ErrContractNotFound.WithDetailsf("%s %q", kind, name).WithCause(err)
}
