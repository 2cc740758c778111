package buffer

import (
	"hash/fnv"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/spacemeshos/go-iusync/iu"
)

type unitStore struct {
	mu    sync.RWMutex
	units map[string]*iu.Unit
}

func newUnitStore() *unitStore {
	return &unitStore{units: map[string]*iu.Unit{}}
}

func (s *unitStore) get(uid string) (*iu.Unit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[uid]
	return u, ok
}

// putIfAbsent returns false if a unit with the same id is already stored.
func (s *unitStore) putIfAbsent(u *iu.Unit) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.units[u.UID()]; ok {
		return false
	}
	s.units[u.UID()] = u
	return true
}

func (s *unitStore) remove(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.units, uid)
}

func (s *unitStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.units)
}

// values returns stored units ordered by id.
func (s *unitStore) values() []*iu.Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.SortedFunc(maps.Values(s.units), func(a, b *iu.Unit) int {
		return strings.Compare(a.UID(), b.UID())
	})
}

const lockStripes = 256

// stripedLocks serializes work per unit id. Different ids may share a stripe.
type stripedLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *stripedLocks) lock(uid string) (unlock func()) {
	h := fnv.New32a()
	h.Write([]byte(uid))
	mu := &l.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}
