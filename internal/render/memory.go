package render

import (
	"sync"

	"designboards/internal/board"
)

// MemoryRenderer keeps the scene in a map instead of drawing it. It backs
// headless sessions and the engine tests.
type MemoryRenderer struct {
	mu         sync.Mutex
	primitives map[string]board.Object

	Adds    int
	Updates int
	Removes int
}

func NewMemoryRenderer() *MemoryRenderer {
	return &MemoryRenderer{primitives: make(map[string]board.Object)}
}

func (r *MemoryRenderer) AddPrimitive(o board.Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.primitives[o.ID] = o
	r.Adds++
}

func (r *MemoryRenderer) UpdatePrimitive(o board.Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.primitives[o.ID] = o
	r.Updates++
}

func (r *MemoryRenderer) RemovePrimitive(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.primitives, id)
	r.Removes++
}

// Primitive returns the currently rendered object for an id
func (r *MemoryRenderer) Primitive(id string) (board.Object, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.primitives[id]
	return o, ok
}

func (r *MemoryRenderer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.primitives)
}
