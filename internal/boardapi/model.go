package boardapi

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"designboards/internal/board"
	"designboards/internal/settings"
)

type Board struct {
	ID      string `gorm:"primaryKey;type:uuid"`
	OwnerID uint64 `gorm:"index;not null"`
	Title   string `gorm:"not null"`

	// settings columns, persisted as part of the board record
	Theme        string `gorm:"default:'light'"`
	Background   string `gorm:"default:'#ffffff'"`
	CanvasWidth  int    `gorm:"default:1920"`
	CanvasHeight int    `gorm:"default:1080"`
	GridVisible  bool   `gorm:"default:true"`
	GridSize     int    `gorm:"default:20"`
	SnapToGrid   bool   `gorm:"default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Objects []BoardObject `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE"`
}

// BoardObject is one persisted canvas object. Geometry lives in columns,
// the variant-specific properties in a JSON payload.
type BoardObject struct {
	ID       string         `gorm:"primaryKey;type:uuid"`
	BoardID  string         `gorm:"index;not null;type:uuid"`
	Kind     string         `gorm:"not null"`
	X        float64        `gorm:"not null"`
	Y        float64        `gorm:"not null"`
	Width    float64        `gorm:"not null"`
	Height   float64        `gorm:"not null"`
	ZIndex   int            `gorm:"default:0"`
	Payload  datatypes.JSON `gorm:"type:jsonb"`
	EditedBy string

	UpdatedAt time.Time
}

func (b *Board) SettingsValue() settings.Settings {
	return settings.Clamp(settings.Settings{
		Theme:        settings.Theme(b.Theme),
		Background:   b.Background,
		CanvasWidth:  b.CanvasWidth,
		CanvasHeight: b.CanvasHeight,
		GridVisible:  b.GridVisible,
		GridSize:     b.GridSize,
		SnapToGrid:   b.SnapToGrid,
	})
}

func (b *Board) ApplySettings(s settings.Settings) {
	s = settings.Clamp(s)
	b.Theme = string(s.Theme)
	b.Background = s.Background
	b.CanvasWidth = s.CanvasWidth
	b.CanvasHeight = s.CanvasHeight
	b.GridVisible = s.GridVisible
	b.GridSize = s.GridSize
	b.SnapToGrid = s.SnapToGrid
}

// variantPayload is the JSON shape stored in the payload column
type variantPayload struct {
	Shape   *board.ShapeProps   `json:"shape_props,omitempty"`
	Text    *board.TextProps    `json:"text_props,omitempty"`
	Image   *board.ImageProps   `json:"image_props,omitempty"`
	Hotspot *board.HotspotProps `json:"hotspot_props,omitempty"`
}

// ToObject converts a row back into an engine object
func (r *BoardObject) ToObject() (board.Object, error) {
	o := board.Object{
		ID:        r.ID,
		Kind:      board.Kind(r.Kind),
		X:         r.X,
		Y:         r.Y,
		Width:     r.Width,
		Height:    r.Height,
		ZIndex:    r.ZIndex,
		EditedBy:  r.EditedBy,
		UpdatedAt: r.UpdatedAt,
	}

	if len(r.Payload) > 0 {
		var p variantPayload
		if err := json.Unmarshal(r.Payload, &p); err != nil {
			return o, err
		}
		o.Shape = p.Shape
		o.Text = p.Text
		o.Image = p.Image
		o.Hotspot = p.Hotspot
	}

	return o, nil
}

// FromObject converts an engine object into its row shape
func FromObject(boardID string, o board.Object) (BoardObject, error) {
	raw, err := json.Marshal(variantPayload{
		Shape:   o.Shape,
		Text:    o.Text,
		Image:   o.Image,
		Hotspot: o.Hotspot,
	})
	if err != nil {
		return BoardObject{}, err
	}

	return BoardObject{
		ID:        o.ID,
		BoardID:   boardID,
		Kind:      string(o.Kind),
		X:         o.X,
		Y:         o.Y,
		Width:     o.Width,
		Height:    o.Height,
		ZIndex:    o.ZIndex,
		Payload:   datatypes.JSON(raw),
		EditedBy:  o.EditedBy,
		UpdatedAt: o.UpdatedAt,
	}, nil
}
