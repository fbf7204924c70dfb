// Package cmap provides a sharded concurrent map.
//
// Keys are spread across a power-of-two number of shards by a murmur3
// hash of their string form. Each shard has its own RWMutex, so
// operations on keys in different shards never contend.
//
// Usage:
//
//	m := cmap.New[string, []*idle]()
//	m.Update("appUser", func(v []*idle, ok bool) []*idle { return append(v, s) })
//	v, ok := m.Pop("appUser")
//
// Callbacks passed to Update and Range run while the shard lock is held
// and must not call back into the same map.
package cmap
