// Package mapping provides the durable half of the mapping table described
// in spec §3/§4.6: a SQLite-backed implementation of core.MappingStore. A
// Store is leased by one sync run for its duration (spec §5 Resource
// ownership) and closed once that run's plans are applied and its newly
// discovered pairings flushed.
package mapping

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tonimelisma/bkmsync/internal/core"
)

// job is a unit of work handed to the single writer goroutine: run executes
// against the shared *sql.DB and reports its outcome on done. Routing every
// read and write through this one goroutine, rather than guarding db with a
// mutex, is what gives AddMapping/RemoveMapping/Snapshot calls issued from
// any goroutine a single consistent total order without the caller ever
// needing to know that.
type job struct {
	run  func(db *sql.DB) error
	done chan error
}

// Store is a SQLite-backed core.MappingStore. The zero value is not usable;
// construct with Open.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	runID  string

	jobs   chan *job
	closed chan struct{}

	cacheMu sync.Mutex
	cache   core.Mapping
}

// Open opens (creating if necessary) the SQLite database at path, applies
// any pending goose migrations, and starts the writer goroutine. Callers
// must call Close when the sync run that leased the Store is done.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("mapping: opening %s: %w", path, err)
	}

	// One connection: this package is the sole writer of this database
	// file, and routing everything through a single writer goroutine
	// already serializes access, so there is never a second connection to
	// contend with. Mirrors the teacher's ledger/BaselineManager choice.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:     db,
		logger: logger,
		runID:  uuid.New().String(),
		jobs:   make(chan *job, 64),
		closed: make(chan struct{}),
		cache:  core.NewMapping(),
	}

	if err := s.hydrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	go s.writeLoop()

	return s, nil
}

func (s *Store) writeLoop() {
	for j := range s.jobs {
		j.done <- j.run(s.db)
	}

	close(s.closed)
}

// submit enqueues run and blocks until the writer goroutine has executed it.
func (s *Store) submit(run func(db *sql.DB) error) error {
	j := &job{run: run, done: make(chan error, 1)}
	s.jobs <- j

	return <-j.done
}

// hydrate loads the full mapping table into the in-memory cache once, at
// Open time, so an early Snapshot (before any write has happened this run)
// doesn't need a special case.
func (s *Store) hydrate(ctx context.Context) error {
	m, err := loadMapping(ctx, s.db)
	if err != nil {
		return fmt.Errorf("mapping: initial load: %w", err)
	}

	s.cacheMu.Lock()
	s.cache = m
	s.cacheMu.Unlock()

	return nil
}

// Snapshot implements core.MappingStore. It re-reads both tables through the
// writer goroutine (so it observes every write queued ahead of it, per spec
// §3 Lifecycle) and refreshes the in-memory cache on success. The
// core.MappingStore interface has no error return for Snapshot, so a read
// failure is logged and the last known-good cache is served instead of
// panicking — a mapping store hiccup should degrade reconciliation toward
// "nothing new learned yet", never crash it.
func (s *Store) Snapshot() core.Snapshot {
	err := s.submit(func(db *sql.DB) error {
		m, loadErr := loadMapping(context.Background(), db)
		if loadErr != nil {
			return loadErr
		}

		s.cacheMu.Lock()
		s.cache = m
		s.cacheMu.Unlock()

		return nil
	})
	if err != nil {
		s.logger.Error("mapping: snapshot read failed, serving last known-good snapshot",
			slog.String("run_id", s.runID), slog.String("error", err.Error()))
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	return core.NewSnapshot(s.cache)
}

// AddMapping implements core.MappingStore.
func (s *Store) AddMapping(kind core.Kind, localID, serverID string) error {
	table := tableFor(kind)
	now := time.Now().UnixNano()

	err := s.submit(func(db *sql.DB) error {
		_, execErr := db.ExecContext(context.Background(),
			`INSERT INTO `+table+` (local_id, server_id, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(local_id) DO UPDATE SET server_id = excluded.server_id, updated_at = excluded.updated_at`,
			localID, serverID, now)
		if execErr != nil {
			return fmt.Errorf("mapping: add %s %s->%s: %w", kind, localID, serverID, execErr)
		}

		s.cacheMu.Lock()
		setPair(&s.cache, kind, localID, serverID)
		s.cacheMu.Unlock()

		return nil
	})
	if err == nil {
		s.logger.Debug("mapping: pairing recorded",
			slog.String("run_id", s.runID), slog.String("kind", kind.String()),
			slog.String("local_id", localID), slog.String("server_id", serverID))
	}

	return err
}

// RemoveMapping implements core.MappingStore.
func (s *Store) RemoveMapping(kind core.Kind, localID string) error {
	table := tableFor(kind)

	return s.submit(func(db *sql.DB) error {
		_, execErr := db.ExecContext(context.Background(),
			`DELETE FROM `+table+` WHERE local_id = ?`, localID)
		if execErr != nil {
			return fmt.Errorf("mapping: remove %s %s: %w", kind, localID, execErr)
		}

		s.cacheMu.Lock()
		dropPair(&s.cache, kind, localID)
		s.cacheMu.Unlock()

		return nil
	})
}

// Close drains the job queue and closes the underlying database handle.
func (s *Store) Close() error {
	close(s.jobs)
	<-s.closed

	return s.db.Close()
}

func tableFor(kind core.Kind) string {
	if kind == core.KindFolder {
		return "folder_mappings"
	}

	return "bookmark_mappings"
}

func loadMapping(ctx context.Context, db *sql.DB) (core.Mapping, error) {
	m := core.NewMapping()

	if err := loadTable(ctx, db, "folder_mappings", core.KindFolder, &m); err != nil {
		return core.Mapping{}, err
	}

	if err := loadTable(ctx, db, "bookmark_mappings", core.KindBookmark, &m); err != nil {
		return core.Mapping{}, err
	}

	return m, nil
}

func loadTable(ctx context.Context, db *sql.DB, table string, kind core.Kind, m *core.Mapping) error {
	rows, err := db.QueryContext(ctx, `SELECT local_id, server_id FROM `+table)
	if err != nil {
		return fmt.Errorf("mapping: reading %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var localID, serverID string
		if err := rows.Scan(&localID, &serverID); err != nil {
			return fmt.Errorf("mapping: scanning %s row: %w", table, err)
		}

		setPair(m, kind, localID, serverID)
	}

	return rows.Err()
}

func setPair(m *core.Mapping, kind core.Kind, localID, serverID string) {
	if kind == core.KindFolder {
		m.LocalToServer.Folder[localID] = serverID
		m.ServerToLocal.Folder[serverID] = localID

		return
	}

	m.LocalToServer.Bookmark[localID] = serverID
	m.ServerToLocal.Bookmark[serverID] = localID
}

func dropPair(m *core.Mapping, kind core.Kind, localID string) {
	if kind == core.KindFolder {
		if serverID, ok := m.LocalToServer.Folder[localID]; ok {
			delete(m.LocalToServer.Folder, localID)
			delete(m.ServerToLocal.Folder, serverID)
		}

		return
	}

	if serverID, ok := m.LocalToServer.Bookmark[localID]; ok {
		delete(m.LocalToServer.Bookmark, localID)
		delete(m.ServerToLocal.Bookmark, serverID)
	}
}
