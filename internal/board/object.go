package board

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the CanvasObject variants
type Kind string

const (
	KindShape   Kind = "shape"
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindHotspot Kind = "hotspot"
)

type ShapeKind string

const (
	ShapeRect    ShapeKind = "rect"
	ShapeEllipse ShapeKind = "ellipse"
	ShapeLine    ShapeKind = "line"
	ShapeArrow   ShapeKind = "arrow"
)

type ShapeProps struct {
	Shape       ShapeKind `json:"shape"`
	Fill        string    `json:"fill"`
	Stroke      string    `json:"stroke"`
	StrokeWidth float64   `json:"stroke_width"`
	SizeClass   string    `json:"size_class,omitempty"`
}

type TextProps struct {
	Content    string  `json:"content"`
	FontFamily string  `json:"font_family"`
	FontSize   float64 `json:"font_size"`
	FontWeight string  `json:"font_weight,omitempty"`
	FontStyle  string  `json:"font_style,omitempty"`
	Decoration string  `json:"decoration,omitempty"`
	Align      string  `json:"align,omitempty"`
	Color      string  `json:"color"`
}

type ImageProps struct {
	AssetURL string `json:"asset_url"`
}

// HotspotProps links a region of the canvas to an external record,
// e.g. a product page.
type HotspotProps struct {
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
}

// Object is one placed entity on a board. Exactly one of the variant
// pointers matching Kind is set. The ID is assigned on creation and never
// changes for the lifetime of the object.
type Object struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	ZIndex    int       `json:"z_index"`
	EditedBy  string    `json:"edited_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`

	Shape   *ShapeProps   `json:"shape_props,omitempty"`
	Text    *TextProps    `json:"text_props,omitempty"`
	Image   *ImageProps   `json:"image_props,omitempty"`
	Hotspot *HotspotProps `json:"hotspot_props,omitempty"`
}

// Bounds is the canvas extent objects are clamped into
type Bounds struct {
	Width  float64
	Height float64
}

// ClampTo returns a copy of the object with position and dimensions forced
// inside the canvas. Mutations are clamped, never rejected.
func (o Object) ClampTo(b Bounds) Object {
	if o.Width < 0 {
		o.Width = 0
	}
	if o.Height < 0 {
		o.Height = 0
	}
	if o.Width > b.Width {
		o.Width = b.Width
	}
	if o.Height > b.Height {
		o.Height = b.Height
	}

	o.X = clamp(o.X, 0, b.Width-o.Width)
	o.Y = clamp(o.Y, 0, b.Height-o.Height)
	return o
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NewID returns a fresh stable object identifier
func NewID() string {
	return uuid.NewString()
}
