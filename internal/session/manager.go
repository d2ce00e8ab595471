package session

import (
	"context"
	"fmt"
	"log"
	gosync "sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"designboards/internal/render"
	syncx "designboards/internal/sync"
	"designboards/internal/worker"
)

// Manager is the arena of open board sessions, keyed by board id. Each
// session owns its object model and settings store exclusively; several
// boards can be open at once without cross-talk.
type Manager struct {
	store Persistence
	rdb   *redis.Client
	pool  *worker.WorkerPool
	opts  Options

	mu       gosync.Mutex
	sessions map[string]*Controller
}

func NewManager(store Persistence, rdb *redis.Client, pool *worker.WorkerPool, opts Options) *Manager {
	return &Manager{
		store:    store,
		rdb:      rdb,
		pool:     pool,
		opts:     opts,
		sessions: make(map[string]*Controller),
	}
}

// Open creates (or returns) the session for a board. The client id
// identifies this process on the change feed so its own events are
// filtered on the way back in.
func (m *Manager) Open(ctx context.Context, boardID string, surface render.Surface) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.sessions[boardID]; ok {
		return c, nil
	}

	opts := m.opts
	if opts.ClientID == "" {
		opts.ClientID = uuid.NewString()
	}

	feed := syncx.NewFeed(m.rdb, boardID, opts.ClientID)
	c, err := Open(ctx, m.store, surface, feed, m.pool, boardID, opts)
	if err != nil {
		return nil, fmt.Errorf("open board %s: %w", boardID, err)
	}

	m.sessions[boardID] = c
	return c, nil
}

// Get returns an already open session
func (m *Manager) Get(boardID string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.sessions[boardID]
	return c, ok
}

// Close tears one session down, flushing its pending save
func (m *Manager) Close(boardID string) error {
	m.mu.Lock()
	c, ok := m.sessions[boardID]
	delete(m.sessions, boardID)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return c.Close()
}

// CloseAll tears every session down; used on shutdown
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Controller)
	m.mu.Unlock()

	for id, c := range sessions {
		if err := c.Close(); err != nil {
			log.Printf("[SESSION] closing board %s: %v", id, err)
		}
	}
}
