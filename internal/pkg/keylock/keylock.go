// Package keylock serializes work per string key using a fixed table of
// mutex shards. Two keys that hash to the same shard also serialize, which
// is harmless for short critical sections.
package keylock

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

type Table struct {
	shards []sync.Mutex
}

// New returns a table with n shards. n < 1 is treated as 1.
func New(n int) *Table {
	if n < 1 {
		n = 1
	}
	return &Table{shards: make([]sync.Mutex, n)}
}

// Lock acquires the shard for key and returns the matching unlock func.
func (t *Table) Lock(key string) (unlock func()) {
	m := &t.shards[t.shard(key)]
	m.Lock()
	return m.Unlock
}

func (t *Table) shard(key string) int {
	return int(xxhash.Sum64String(key) % uint64(len(t.shards)))
}
