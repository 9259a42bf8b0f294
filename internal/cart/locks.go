package cart

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// stripedLocks serializes read-modify-write cycles per cart key inside one process.
type stripedLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *stripedLocks) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &l.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// viewGenerations counts invalidations per cached view key. A fetch that
// started under an older generation must not publish its result.
type viewGenerations struct {
	mu   sync.Mutex
	gens map[string]uint64
}

func (g *viewGenerations) current(key string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gens[key]
}

func (g *viewGenerations) bump(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gens == nil {
		g.gens = map[string]uint64{}
	}
	g.gens[key]++
}
