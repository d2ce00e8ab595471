package history

import (
	"designboards/internal/board"
)

// Handle is the public surface of one board's undo/redo history. The five
// functions are bound once in New and keep the same identity for the life
// of the session, no matter how often the internal stack changes. Input
// subscriptions are keyed on these references; handing out a fresh handle
// per state change re-attaches listeners and loops the client.
type Handle struct {
	Record  func(state board.State)
	Undo    func() (board.State, bool)
	Redo    func() (board.State, bool)
	CanUndo func() bool
	CanRedo func() bool
}

type stack struct {
	entries []board.State
	cursor  int
	depth   int
}

const DefaultDepth = 50

// New builds a history with a bounded snapshot stack. A depth below 2
// falls back to the default; one live entry plus at least one undo step
// is the minimum useful history.
func New(depth int) Handle {
	if depth < 2 {
		depth = DefaultDepth
	}

	s := &stack{cursor: -1, depth: depth}
	return Handle{
		Record:  s.record,
		Undo:    s.undo,
		Redo:    s.redo,
		CanUndo: s.canUndo,
		CanRedo: s.canRedo,
	}
}

// record pushes a snapshot, discarding any redo branch. Snapshots are
// deep copies; history never holds live references into the object model.
func (s *stack) record(state board.State) {
	s.entries = s.entries[:s.cursor+1]
	s.entries = append(s.entries, state.Clone())
	s.cursor = len(s.entries) - 1

	// evict oldest entries past the cap
	if len(s.entries) > s.depth {
		over := len(s.entries) - s.depth
		s.entries = append([]board.State(nil), s.entries[over:]...)
		s.cursor -= over
	}
}

func (s *stack) undo() (board.State, bool) {
	if s.cursor <= 0 {
		return nil, false
	}
	s.cursor--
	return s.entries[s.cursor].Clone(), true
}

func (s *stack) redo() (board.State, bool) {
	if s.cursor < 0 || s.cursor >= len(s.entries)-1 {
		return nil, false
	}
	s.cursor++
	return s.entries[s.cursor].Clone(), true
}

func (s *stack) canUndo() bool {
	return s.cursor > 0
}

func (s *stack) canRedo() bool {
	return s.cursor >= 0 && s.cursor < len(s.entries)-1
}
