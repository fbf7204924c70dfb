package connmgr

import (
	"time"

	"github.com/yndnr/assetgw-go/pkg/cmap"
)

// Pool eviction reasons.
const (
	EvictStale    = "stale"
	EvictBroken   = "broken"
	EvictOverflow = "overflow"
	EvictIdentity = "identity"
	EvictShutdown = "shutdown"
)

// PoolConfig configures session reuse.
type PoolConfig struct {
	Enabled bool

	// MaxIdle caps idle sessions kept per identity.
	MaxIdle int

	// MaxAge is how long a session may be reused after it was dialed.
	// Zero means no age limit.
	MaxAge time.Duration
}

type pooled struct {
	label   string
	sess    Session
	created time.Time
}

// pool holds idle sessions keyed by identity label. Slices are only
// mutated under the shard lock; sessions are dialed and closed outside it.
type pool struct {
	cfg  PoolConfig
	idle *cmap.Map[string, []*pooled]
}

func newPool(cfg PoolConfig) *pool {
	if cfg.MaxIdle < 1 {
		cfg.MaxIdle = 1
	}
	return &pool{cfg: cfg, idle: cmap.New[string, []*pooled]()}
}

// take pops the most recently returned idle session for label.
func (p *pool) take(label string) *pooled {
	var got *pooled
	p.idle.Update(label, func(cur []*pooled, _ bool) ([]*pooled, bool) {
		if len(cur) == 0 {
			return nil, false
		}
		got = cur[len(cur)-1]
		cur[len(cur)-1] = nil
		cur = cur[:len(cur)-1]
		return cur, len(cur) > 0
	})
	return got
}

// put returns a session to the idle set. It reports false when the set
// is full or closed is true, in which case the caller must close it.
func (p *pool) put(ps *pooled, closed func() bool) bool {
	ok := false
	p.idle.Update(ps.label, func(cur []*pooled, exists bool) ([]*pooled, bool) {
		if closed() || len(cur) >= p.cfg.MaxIdle {
			return cur, exists
		}
		ok = true
		return append(cur, ps), true
	})
	return ok
}

func (p *pool) expired(ps *pooled, now time.Time) bool {
	return p.cfg.MaxAge > 0 && now.Sub(ps.created) >= p.cfg.MaxAge
}

func (p *pool) remove(label string) []*pooled {
	list, _ := p.idle.Pop(label)
	return list
}

func (p *pool) drain() []*pooled {
	var all []*pooled
	for _, list := range p.idle.Drain() {
		all = append(all, list...)
	}
	return all
}

func (p *pool) counts() map[string]int {
	out := make(map[string]int)
	p.idle.Range(func(label string, list []*pooled) bool {
		out[label] = len(list)
		return true
	})
	return out
}
