package session

import (
	"context"
	"errors"
	"log"
	"reflect"
	gosync "sync"
	"time"

	"designboards/internal/board"
	"designboards/internal/history"
	"designboards/internal/render"
	"designboards/internal/settings"
	syncx "designboards/internal/sync"
	"designboards/internal/worker"
)

// BoardData is everything a session needs from the persistence API to open
// a board.
type BoardData struct {
	ID       string
	OwnerID  uint64
	Title    string
	Settings settings.Settings
	Objects  []board.Object
}

// Persistence is the CRUD-style backing store the sync layer writes to.
// Writes are idempotent, delivery is at least once.
type Persistence interface {
	LoadBoard(ctx context.Context, boardID string) (*BoardData, error)
	SaveObjects(ctx context.Context, boardID string, objects []board.Object) error
	SaveSettings(ctx context.Context, boardID string, s settings.Settings) error
}

// Feed is the change-feed surface a session publishes to and receives
// from. *sync.Feed is the Redis implementation.
type Feed interface {
	Publish(ctx context.Context, ev syncx.Event) error
	Subscribe(ctx context.Context, onRemote func(syncx.Event)) error
	Unsubscribe()
}

// origin tags where a mutation came from so the commit path can decide
// what to skip: remote merges are not re-broadcast, history moves are not
// re-recorded (recording an undo would truncate its own redo branch).
type origin int

const (
	originLocal origin = iota
	originRemote
	originHistory
)

// Controller owns one open board: object model, settings, history, sync.
// All mutations, whatever their source, funnel through commit in the same
// fixed order: apply, record, render, schedule save.
type Controller struct {
	boardID  string
	clientID string
	title    string
	ownerID  uint64

	store    Persistence
	surface  render.Surface
	saver    *syncx.Saver
	feed     Feed
	history  history.Handle
	settings *settings.Store
	pool     *worker.WorkerPool

	mu      gosync.Mutex
	objects board.State
	closed  bool
}

// Options carries the engine knobs a session is opened with
type Options struct {
	ClientID     string
	HistoryDepth int
	SaveDebounce time.Duration
	SaveRetries  int
}

// Open loads the board, primes the history with one initial snapshot and
// subscribes the change feed. The history handle is acquired here, once,
// and never recreated for the life of the session.
func Open(
	ctx context.Context,
	store Persistence,
	surface render.Surface,
	feed Feed,
	pool *worker.WorkerPool,
	boardID string,
	opts Options,
) (*Controller, error) {
	data, err := store.LoadBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		boardID:  boardID,
		clientID: opts.ClientID,
		title:    data.Title,
		ownerID:  data.OwnerID,
		store:    store,
		surface:  surface,
		feed:     feed,
		pool:     pool,
		history:  history.New(opts.HistoryDepth),
		settings: settings.NewStore(data.Settings),
		objects:  board.FromObjects(data.Objects),
	}

	c.saver = syncx.NewSaver(func(ctx context.Context, objects []board.Object) error {
		return store.SaveObjects(ctx, boardID, objects)
	}, opts.SaveDebounce, opts.SaveRetries)

	// initial snapshot; undo stops here
	c.history.Record(c.objects)

	// the edit callback is wired exactly once
	surface.OnUserEdit(func(ch board.Change) {
		if err := c.Mutate(ch); err != nil {
			log.Printf("[SESSION] edit rejected: %v", err)
		}
	})
	surface.ApplyObjects(c.objects.Objects())

	if feed != nil {
		if err := feed.Subscribe(ctx, c.ApplyRemote); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Controller) BoardID() string { return c.boardID }
func (c *Controller) Title() string   { return c.title }

// Objects returns the current object model in z-order
func (c *Controller) Objects() []board.Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.objects.Objects()
}

// History exposes the stable undo/redo handle
func (c *Controller) History() history.Handle {
	return c.history
}

// Settings returns the current board settings
func (c *Controller) Settings() settings.Settings {
	return c.settings.Get()
}

func (c *Controller) bounds() board.Bounds {
	s := c.settings.Get()
	return board.Bounds{Width: float64(s.CanvasWidth), Height: float64(s.CanvasHeight)}
}

// Mutate is the single authoritative mutation entry point for local edits
func (c *Controller) Mutate(ch board.Change) error {
	return c.commit(ch, originLocal)
}

func (c *Controller) commit(ch board.Change, from origin) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("session closed")
	}

	// assign the id here so the broadcast below carries it
	if ch.Type == board.ChangeCreate && ch.Object != nil && ch.Object.ID == "" {
		o := *ch.Object
		o.ID = board.NewID()
		ch.Object = &o
	}

	next, err := board.Apply(c.objects, c.bounds(), ch)
	if err != nil {
		c.mu.Unlock()
		if errors.Is(err, board.ErrObjectNotFound) {
			// a delete racing a remote update; warn and move on
			log.Printf("[SESSION] %s on missing object %s, skipped", ch.Type, ch.ObjectID)
			return nil
		}
		return err
	}

	c.objects = next
	if from != originHistory {
		c.history.Record(next)
	}
	snapshot := next.Objects()
	c.mu.Unlock()

	c.surface.ApplyObjects(snapshot)
	c.saver.Schedule(snapshot)

	if from == originLocal {
		c.broadcast(ch, next)
	}
	return nil
}

// broadcast publishes a local change to collaborators off the edit path
func (c *Controller) broadcast(ch board.Change, state board.State) {
	if c.feed == nil {
		return
	}

	ev := syncx.Event{
		ObjectID:   ch.ObjectID,
		ChangeType: ch.Type,
		Timestamp:  time.Now().UTC(),
	}
	if ch.Type == board.ChangeCreate && ch.Object != nil {
		ev.ObjectID = ch.Object.ID
	}
	if ch.Type != board.ChangeDelete {
		if o, ok := state[ev.ObjectID]; ok {
			ev.Payload = &o
		}
	}

	c.publish(ev)
}

// broadcastDiff publishes the per-object delta between two states. Undo and
// redo move across whole snapshots, so no single change describes them; the
// diff tells collaborators what actually happened to each object.
func (c *Controller) broadcastDiff(before, after board.State) {
	if c.feed == nil {
		return
	}

	now := time.Now().UTC()
	for id, o := range after {
		prev, ok := before[id]
		if ok && reflect.DeepEqual(prev, o) {
			continue
		}
		typ := board.ChangeUpdate
		if !ok {
			typ = board.ChangeCreate
		}
		obj := o
		c.publish(syncx.Event{
			ObjectID:   id,
			ChangeType: typ,
			Payload:    &obj,
			Timestamp:  now,
		})
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			c.publish(syncx.Event{
				ObjectID:   id,
				ChangeType: board.ChangeDelete,
				Timestamp:  now,
			})
		}
	}
}

func (c *Controller) publish(ev syncx.Event) {
	publish := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return c.feed.Publish(ctx, ev)
	}

	if c.pool != nil {
		c.pool.Submit(publish)
		return
	}
	if err := publish(context.Background()); err != nil {
		log.Printf("[SESSION] broadcast failed: %v", err)
	}
}

// ApplyRemote merges one change-feed event into the local model. Remote
// mutations go through the same commit ordering but are never rebroadcast.
func (c *Controller) ApplyRemote(ev syncx.Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	next, changed := syncx.MergeRemote(c.objects, c.bounds(), ev)
	if !changed {
		c.mu.Unlock()
		return
	}

	c.objects = next
	c.history.Record(next)
	snapshot := next.Objects()
	c.mu.Unlock()

	c.surface.ApplyObjects(snapshot)
	c.saver.Schedule(snapshot)
}

// Undo steps the model back one snapshot. No-op at the start of history.
// The reverted state reaches collaborators as ordinary per-object deltas.
func (c *Controller) Undo() bool {
	c.mu.Lock()
	before := c.objects
	prev, ok := c.history.Undo()
	if !ok {
		c.mu.Unlock()
		return false
	}
	c.objects = prev
	snapshot := prev.Objects()
	c.mu.Unlock()

	c.surface.ApplyObjects(snapshot)
	c.saver.Schedule(snapshot)
	c.broadcastDiff(before, prev)
	return true
}

// Redo steps forward again; only possible straight after an undo
func (c *Controller) Redo() bool {
	c.mu.Lock()
	before := c.objects
	next, ok := c.history.Redo()
	if !ok {
		c.mu.Unlock()
		return false
	}
	c.objects = next
	snapshot := next.Objects()
	c.mu.Unlock()

	c.surface.ApplyObjects(snapshot)
	c.saver.Schedule(snapshot)
	c.broadcastDiff(before, next)
	return true
}

// UpdateSettings applies a partial settings change optimistically and
// persists it through the save path.
func (c *Controller) UpdateSettings(ctx context.Context, p settings.Patch) settings.Settings {
	applied := c.settings.Set(p)

	// settings writes are small and rare; persist directly
	if err := c.store.SaveSettings(ctx, c.boardID, applied); err != nil {
		log.Printf("[SESSION] settings save failed: %v", err)
	}

	// a shrunk canvas re-clamps every object
	c.mu.Lock()
	reclamped := make(board.State, len(c.objects))
	b := board.Bounds{Width: float64(applied.CanvasWidth), Height: float64(applied.CanvasHeight)}
	for id, o := range c.objects {
		reclamped[id] = o.ClampTo(b)
	}
	c.objects = reclamped
	snapshot := reclamped.Objects()
	c.mu.Unlock()

	c.surface.ApplyObjects(snapshot)
	c.saver.Schedule(snapshot)
	return applied
}

// Unsaved reports the "changes not saved" indicator state
func (c *Controller) Unsaved() bool {
	return c.saver.Unsaved()
}

// Close unsubscribes the feed, cancels the pending debounce and flushes
// synchronously before returning.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.feed != nil {
		c.feed.Unsubscribe()
	}

	err := c.saver.Close()
	c.surface.Unmount()
	return err
}
