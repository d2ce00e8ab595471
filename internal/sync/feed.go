package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	gosync "sync"
	"time"

	"github.com/redis/go-redis/v9"

	"designboards/internal/board"
)

// Event is one change-feed message, scoped to a single board channel.
// Payload carries the full object state after the change for create and
// update; it is empty for delete.
type Event struct {
	ObjectID       string           `json:"object_id"`
	ChangeType     board.ChangeType `json:"change_type"`
	Payload        *board.Object    `json:"payload,omitempty"`
	OriginClientID string           `json:"origin_client_id"`
	Timestamp      time.Time        `json:"timestamp"`
}

// Feed is the pub/sub channel carrying remote deltas for one board.
// Collaboration is message passing only; clients never share memory.
type Feed struct {
	client   *redis.Client
	boardID  string
	clientID string

	pubsub *redis.PubSub
	wg     gosync.WaitGroup
}

func NewFeed(client *redis.Client, boardID, clientID string) *Feed {
	return &Feed{
		client:   client,
		boardID:  boardID,
		clientID: clientID,
	}
}

func (f *Feed) channel() string {
	return fmt.Sprintf("board:%s:feed", f.boardID)
}

// Publish broadcasts a local change. The origin client id is stamped here
// so subscribers can drop their own writes.
func (f *Feed) Publish(ctx context.Context, ev Event) error {
	if f.client == nil {
		return nil // running without Redis
	}

	ev.OriginClientID = f.clientID
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return f.client.Publish(ctx, f.channel(), raw).Err()
}

// Subscribe opens the change feed and invokes onRemote with every delta
// originating from another client. Events published by this client are
// filtered out.
func (f *Feed) Subscribe(ctx context.Context, onRemote func(Event)) error {
	if f.client == nil {
		log.Println("[FEED] Redis unavailable, collaboration disabled")
		return nil
	}

	f.pubsub = f.client.Subscribe(ctx, f.channel())

	// confirm the subscription before returning so no event is missed
	if _, err := f.pubsub.Receive(ctx); err != nil {
		return err
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for msg := range f.pubsub.Channel() {
			f.dispatch([]byte(msg.Payload), onRemote)
		}
	}()

	return nil
}

// dispatch decodes one raw message and applies the origin filter
func (f *Feed) dispatch(raw []byte, onRemote func(Event)) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		log.Printf("[FEED] dropping malformed event: %v", err)
		return
	}

	if ev.OriginClientID == f.clientID {
		return
	}

	onRemote(ev)
}

// Unsubscribe closes the feed and waits for the reader to drain
func (f *Feed) Unsubscribe() {
	if f.pubsub == nil {
		return
	}
	if err := f.pubsub.Close(); err != nil {
		log.Printf("[FEED] close error: %v", err)
	}
	f.wg.Wait()
	f.pubsub = nil
}

// MergeRemote folds a remote event into the local state, last write wins
// per object on the event timestamp. It reports whether the state changed.
// Concurrent edits to the same object may silently drop the older one;
// that trade-off is accepted for the expected low edit contention.
func MergeRemote(s board.State, b board.Bounds, ev Event) (board.State, bool) {
	local, exists := s[ev.ObjectID]

	switch ev.ChangeType {
	case board.ChangeDelete:
		if !exists {
			return s, false
		}
		if local.UpdatedAt.After(ev.Timestamp) {
			return s, false // local edit is newer than the remote delete
		}
		next, err := board.RemoveObject(s, ev.ObjectID)
		if err != nil {
			return s, false
		}
		return next, true

	case board.ChangeCreate, board.ChangeUpdate:
		if ev.Payload == nil {
			log.Printf("[FEED] %s event without payload for %s", ev.ChangeType, ev.ObjectID)
			return s, false
		}
		if exists && local.UpdatedAt.After(ev.Timestamp) {
			return s, false
		}
		next, err := board.AddObject(s, b, *ev.Payload)
		if err != nil {
			return s, false
		}
		return next, true

	default:
		log.Printf("[FEED] unknown change type %q", ev.ChangeType)
		return s, false
	}
}
