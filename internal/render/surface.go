package render

import (
	"log"
	"reflect"

	"designboards/internal/board"
	"designboards/internal/settings"
)

// Renderer is the drawing technology behind the adapter: whatever turns
// objects into pixels and raises pointer input. The engine only ever
// speaks to it through these three calls.
type Renderer interface {
	AddPrimitive(o board.Object)
	UpdatePrimitive(o board.Object)
	RemovePrimitive(id string)
}

// Surface is the boundary the session controller holds. It owns no
// authoritative board state; it translates between the object model and
// raw input/output.
type Surface interface {
	Mount(container string) error
	Unmount()
	ApplyObjects(objects []board.Object)
	OnUserEdit(fn func(board.Change))
}

// Adapter reconciles the rendered scene against the object model and
// forwards user edits upward. Every committed edit invokes the registered
// callback exactly once.
type Adapter struct {
	renderer Renderer
	settings *settings.Store

	applied map[string]board.Object
	onEdit  func(board.Change)
	mounted bool
}

func NewAdapter(renderer Renderer, st *settings.Store) *Adapter {
	return &Adapter{
		renderer: renderer,
		settings: st,
		applied:  make(map[string]board.Object),
	}
}

func (a *Adapter) Mount(container string) error {
	a.mounted = true
	log.Printf("[RENDER] surface mounted on %s", container)
	return nil
}

func (a *Adapter) Unmount() {
	for id := range a.applied {
		a.renderer.RemovePrimitive(id)
	}
	a.applied = make(map[string]board.Object)
	a.mounted = false
}

// ApplyObjects diffs the incoming object list against the last applied one
// and issues the minimal add/update/remove primitive calls.
func (a *Adapter) ApplyObjects(objects []board.Object) {
	seen := make(map[string]bool, len(objects))

	for _, o := range objects {
		seen[o.ID] = true
		prev, ok := a.applied[o.ID]
		if !ok {
			a.renderer.AddPrimitive(o)
			a.applied[o.ID] = o
			continue
		}
		if !reflect.DeepEqual(prev, o) {
			a.renderer.UpdatePrimitive(o)
			a.applied[o.ID] = o
		}
	}

	for id := range a.applied {
		if !seen[id] {
			a.renderer.RemovePrimitive(id)
			delete(a.applied, id)
		}
	}
}

// OnUserEdit registers the single mutation entry point. Registered once at
// session open; re-registering replaces the callback rather than stacking
// a second listener.
func (a *Adapter) OnUserEdit(fn func(board.Change)) {
	a.onEdit = fn
}

// CommitEdit is called by the input glue when the user finishes a draw,
// drag, resize or type action. Snap-to-grid is applied here, before the
// change leaves the adapter.
func (a *Adapter) CommitEdit(ch board.Change) {
	if a.onEdit == nil {
		log.Println("[RENDER] edit dropped, no session attached")
		return
	}

	if a.settings != nil {
		s := a.settings.Get()
		if s.SnapToGrid {
			ch = snapChange(ch, s.GridSize)
		}
	}

	a.onEdit(ch)
}

func snapChange(ch board.Change, gridSize int) board.Change {
	switch ch.Type {
	case board.ChangeCreate:
		if ch.Object != nil {
			o := *ch.Object
			o.X = settings.Snap(o.X, gridSize)
			o.Y = settings.Snap(o.Y, gridSize)
			ch.Object = &o
		}
	case board.ChangeUpdate:
		if ch.Patch != nil {
			p := *ch.Patch
			if p.X != nil {
				x := settings.Snap(*p.X, gridSize)
				p.X = &x
			}
			if p.Y != nil {
				y := settings.Snap(*p.Y, gridSize)
				p.Y = &y
			}
			ch.Patch = &p
		}
	}
	return ch
}
