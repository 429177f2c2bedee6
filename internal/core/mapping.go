package core

import "sync"

// ByVariant partitions a set of id pairings by item kind, since a folder id
// and a bookmark id live in independent namespaces and must never be
// confused during translation.
type ByVariant struct {
	Folder   map[string]string
	Bookmark map[string]string
}

func newByVariant() ByVariant {
	return ByVariant{Folder: make(map[string]string), Bookmark: make(map[string]string)}
}

func (bv ByVariant) get(kind Kind, id string) (string, bool) {
	if kind == KindFolder {
		v, ok := bv.Folder[id]
		return v, ok
	}

	v, ok := bv.Bookmark[id]

	return v, ok
}

func (bv ByVariant) clone() ByVariant {
	out := newByVariant()
	for k, v := range bv.Folder {
		out.Folder[k] = v
	}

	for k, v := range bv.Bookmark {
		out.Bookmark[k] = v
	}

	return out
}

// Mapping is the bidirectional pairing of local and server ids described in
// spec §3, partitioned by direction and then by variant.
type Mapping struct {
	LocalToServer ByVariant
	ServerToLocal ByVariant
}

// NewMapping returns an empty Mapping.
func NewMapping() Mapping {
	return Mapping{LocalToServer: newByVariant(), ServerToLocal: newByVariant()}
}

// Empty reports whether the mapping carries no pairings at all — the
// condition that selects the first-sync merge reconciler over the normal one.
func (m Mapping) Empty() bool {
	return len(m.LocalToServer.Folder) == 0 && len(m.LocalToServer.Bookmark) == 0
}

// Translate maps a single id of the given kind through the mapping in the
// requested direction. Unmapped ids are returned unchanged with ok=false, per
// the Diff.map contract: an action whose id has no counterpart yet is left
// referring to the source-side id, which is interpreted as "newly created on
// the opposite side".
func (m Mapping) Translate(kind Kind, id string, toServer bool) (string, bool) {
	if id == "" || id == RootID {
		return id, true
	}

	if toServer {
		v, ok := m.LocalToServer.get(kind, id)
		if !ok {
			return id, false
		}

		return v, true
	}

	v, ok := m.ServerToLocal.get(kind, id)
	if !ok {
		return id, false
	}

	return v, true
}

// Snapshot is an immutable, deep-copied view of a Mapping taken at the start
// of reconciliation (spec §3 Lifecycle). The reconciler reads only the
// Snapshot; new pairings discovered during reconciliation are queued through
// MappingStore.AddMapping and only become visible in a later snapshot.
type Snapshot struct {
	mapping Mapping
}

// Mapping returns the underlying (already-isolated) Mapping value. Safe to
// read concurrently and indefinitely — the Snapshot owns its own maps.
func (s Snapshot) Mapping() Mapping {
	return s.mapping
}

// NewSnapshot deep-copies m into an isolated Snapshot.
func NewSnapshot(m Mapping) Snapshot {
	return Snapshot{mapping: Mapping{
		LocalToServer: m.LocalToServer.clone(),
		ServerToLocal: m.ServerToLocal.clone(),
	}}
}

// MappingStore is the persistence contract a sync run borrows for its
// duration (spec §5 Resource ownership). Implementations must serialize
// concurrent AddMapping/RemoveMapping calls (e.g. through a single writer
// goroutine) and must guarantee that Snapshot never observes a partially
// applied pairing. internal/mapping provides a SQLite-backed implementation;
// MemoryStore below is an in-process implementation used by tests and by
// callers that don't need durability.
type MappingStore interface {
	// Snapshot returns a point-in-time, isolated copy of the mapping table.
	Snapshot() Snapshot

	// AddMapping records that localID and serverID (both of the given kind)
	// refer to the same logical item. A duplicate localID under the same
	// kind overwrites silently, per spec §4.6.
	AddMapping(kind Kind, localID, serverID string) error

	// RemoveMapping drops any pairing for localID under the given kind.
	RemoveMapping(kind Kind, localID string) error
}

// MemoryStore is a non-durable MappingStore backed by plain Go maps, guarded
// by a mutex so that the fanned-out reconciliation goroutines described in
// spec §5 can call AddMapping concurrently without corrupting the table.
type MemoryStore struct {
	mu sync.Mutex
	m  Mapping
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: NewMapping()}
}

// Snapshot implements MappingStore.
func (s *MemoryStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return NewSnapshot(s.m)
}

// AddMapping implements MappingStore.
func (s *MemoryStore) AddMapping(kind Kind, localID, serverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind == KindFolder {
		s.m.LocalToServer.Folder[localID] = serverID
		s.m.ServerToLocal.Folder[serverID] = localID
	} else {
		s.m.LocalToServer.Bookmark[localID] = serverID
		s.m.ServerToLocal.Bookmark[serverID] = localID
	}

	return nil
}

// RemoveMapping implements MappingStore.
func (s *MemoryStore) RemoveMapping(kind Kind, localID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fwd, rev map[string]string
	if kind == KindFolder {
		fwd, rev = s.m.LocalToServer.Folder, s.m.ServerToLocal.Folder
	} else {
		fwd, rev = s.m.LocalToServer.Bookmark, s.m.ServerToLocal.Bookmark
	}

	if serverID, ok := fwd[localID]; ok {
		delete(fwd, localID)
		delete(rev, serverID)
	}

	return nil
}
