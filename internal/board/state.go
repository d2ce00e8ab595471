package board

import (
	"errors"
	"sort"
	"time"
)

// ErrObjectNotFound signals a mutation against an unknown object id.
// Callers treat it as a warning, never as a failure; a delete racing a
// remote update is expected during collaboration.
var ErrObjectNotFound = errors.New("object not found")

// State is the full object model of one board, keyed by object id.
// Mutation functions never modify the state they are given; they return a
// fresh map so consumers can diff by identity.
type State map[string]Object

func (s State) Clone() State {
	next := make(State, len(s))
	for id, o := range s {
		next[id] = o
	}
	return next
}

// Objects returns the objects ordered by z-index, id as tiebreaker
func (s State) Objects() []Object {
	out := make([]Object, 0, len(s))
	for _, o := range s {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ZIndex != out[j].ZIndex {
			return out[i].ZIndex < out[j].ZIndex
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Patch is a partial update to an object. Nil fields are left untouched.
type Patch struct {
	X         *float64
	Y         *float64
	Width     *float64
	Height    *float64
	ZIndex    *int
	EditedBy  *string
	UpdatedAt *time.Time

	Shape   *ShapeProps
	Text    *TextProps
	Image   *ImageProps
	Hotspot *HotspotProps
}

// AddObject returns a new state containing the object, clamped to bounds.
// An empty id gets a fresh one assigned.
func AddObject(s State, b Bounds, o Object) (State, error) {
	if o.ID == "" {
		o.ID = NewID()
	}

	next := s.Clone()
	next[o.ID] = o.ClampTo(b)
	return next, nil
}

// UpdateObject applies a partial change to one object. Unknown ids return
// the state unchanged together with ErrObjectNotFound.
func UpdateObject(s State, b Bounds, id string, p Patch) (State, error) {
	o, ok := s[id]
	if !ok {
		return s, ErrObjectNotFound
	}

	if p.X != nil {
		o.X = *p.X
	}
	if p.Y != nil {
		o.Y = *p.Y
	}
	if p.Width != nil {
		o.Width = *p.Width
	}
	if p.Height != nil {
		o.Height = *p.Height
	}
	if p.ZIndex != nil {
		o.ZIndex = *p.ZIndex
	}
	if p.EditedBy != nil {
		o.EditedBy = *p.EditedBy
	}
	if p.UpdatedAt != nil {
		o.UpdatedAt = *p.UpdatedAt
	}
	if p.Shape != nil {
		o.Shape = p.Shape
	}
	if p.Text != nil {
		o.Text = p.Text
	}
	if p.Image != nil {
		o.Image = p.Image
	}
	if p.Hotspot != nil {
		o.Hotspot = p.Hotspot
	}

	next := s.Clone()
	next[id] = o.ClampTo(b)
	return next, nil
}

// RemoveObject returns a new state without the object
func RemoveObject(s State, id string) (State, error) {
	if _, ok := s[id]; !ok {
		return s, ErrObjectNotFound
	}

	next := s.Clone()
	delete(next, id)
	return next, nil
}

// ChangeType tags a Change and the change-feed events derived from it
type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// Change is one proposed mutation of the object model
type Change struct {
	Type     ChangeType
	ObjectID string
	Object   *Object // set for create
	Patch    *Patch  // set for update
}

// Apply dispatches a change to the matching mutation function
func Apply(s State, b Bounds, ch Change) (State, error) {
	switch ch.Type {
	case ChangeCreate:
		if ch.Object == nil {
			return s, errors.New("create change without object")
		}
		return AddObject(s, b, *ch.Object)
	case ChangeUpdate:
		if ch.Patch == nil {
			return s, errors.New("update change without patch")
		}
		return UpdateObject(s, b, ch.ObjectID, *ch.Patch)
	case ChangeDelete:
		return RemoveObject(s, ch.ObjectID)
	default:
		return s, errors.New("unknown change type: " + string(ch.Type))
	}
}

// FromObjects rebuilds a state from a persisted object list
func FromObjects(objects []Object) State {
	s := make(State, len(objects))
	for _, o := range objects {
		s[o.ID] = o
	}
	return s
}
