package history

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"designboards/internal/board"
)

func stateWith(ids ...string) board.State {
	s := board.State{}
	for _, id := range ids {
		s[id] = board.Object{ID: id, Kind: board.KindShape}
	}
	return s
}

func TestUndoRedo_InverseLaw(t *testing.T) {
	h := New(20)

	initial := stateWith()
	h.Record(initial)

	// n mutations
	var states []board.State
	for i := 0; i < 5; i++ {
		s := stateWith()
		for j := 0; j <= i; j++ {
			id := fmt.Sprintf("obj-%d", j)
			s[id] = board.Object{ID: id, Kind: board.KindShape}
		}
		states = append(states, s)
		h.Record(s)
	}

	// n undos land back on the initial state
	var last board.State
	for i := 0; i < 5; i++ {
		s, ok := h.Undo()
		assert.True(t, ok)
		last = s
	}
	assert.Equal(t, initial, last)
	assert.False(t, h.CanUndo())

	// n redos land on the final state
	for i := 0; i < 5; i++ {
		s, ok := h.Redo()
		assert.True(t, ok)
		last = s
	}
	assert.Equal(t, states[4], last)
	assert.False(t, h.CanRedo())
}

func TestUndo_NoOpAtStart(t *testing.T) {
	h := New(10)
	h.Record(stateWith("a"))

	_, ok := h.Undo()
	assert.False(t, ok)
	assert.False(t, h.CanUndo())
}

func TestRedo_InvalidatedByNewMutation(t *testing.T) {
	h := New(10)
	h.Record(stateWith())
	h.Record(stateWith("a"))
	h.Record(stateWith("a", "b"))

	_, ok := h.Undo()
	assert.True(t, ok)
	assert.True(t, h.CanRedo())

	// a fresh mutation discards the redo branch
	h.Record(stateWith("a", "c"))
	assert.False(t, h.CanRedo())

	_, ok = h.Redo()
	assert.False(t, ok)
}

func TestDepthCap_EvictsOldest(t *testing.T) {
	h := New(5)

	for i := 0; i < 50; i++ {
		h.Record(stateWith(fmt.Sprintf("obj-%d", i)))
	}

	// undo beyond the cap is simply unavailable
	undos := 0
	for {
		if _, ok := h.Undo(); !ok {
			break
		}
		undos++
	}
	assert.Equal(t, 4, undos)

	// the oldest reachable state is the one 4 steps back
	s, ok := h.Redo()
	assert.True(t, ok)
	assert.Contains(t, s, "obj-46")
}

func TestSnapshots_AreCopies(t *testing.T) {
	h := New(10)

	live := stateWith("a")
	h.Record(live)

	// mutating the live state must not reach into history
	live["b"] = board.Object{ID: "b"}
	h.Record(live)

	s, ok := h.Undo()
	assert.True(t, ok)
	assert.Len(t, s, 1)

	// and mutating an undo result must not corrupt the stack
	s["c"] = board.Object{ID: "c"}
	again, ok := h.Redo()
	assert.True(t, ok)
	assert.NotContains(t, again, "c")
}

func TestHandle_ReferenceStability(t *testing.T) {
	h := New(200)

	record := reflect.ValueOf(h.Record).Pointer()
	undo := reflect.ValueOf(h.Undo).Pointer()
	redo := reflect.ValueOf(h.Redo).Pointer()
	canUndo := reflect.ValueOf(h.CanUndo).Pointer()

	// the functions observed after 100 mutations are the ones acquired at
	// the start, still wired to the same live stack
	for i := 0; i < 100; i++ {
		h.Record(stateWith(fmt.Sprintf("obj-%d", i)))
	}

	assert.Equal(t, record, reflect.ValueOf(h.Record).Pointer())
	assert.Equal(t, undo, reflect.ValueOf(h.Undo).Pointer())
	assert.Equal(t, redo, reflect.ValueOf(h.Redo).Pointer())
	assert.Equal(t, canUndo, reflect.ValueOf(h.CanUndo).Pointer())

	// behavioral proof: the original handle sees all 100 records
	assert.True(t, h.CanUndo())
	s, ok := h.Undo()
	assert.True(t, ok)
	assert.Contains(t, s, "obj-98")
}
