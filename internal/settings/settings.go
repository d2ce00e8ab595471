package settings

import (
	"math"
	"sync"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Clamp limits. Canvas tops out at 8K per axis.
const (
	GridMin = 5
	GridMax = 100

	CanvasMinWidth  = 800
	CanvasMaxWidth  = 7680
	CanvasMinHeight = 600
	CanvasMaxHeight = 4320
)

// Settings is the per-board presentation state, persisted as part of the
// board record.
type Settings struct {
	Theme        Theme  `json:"theme"`
	Background   string `json:"background"`
	CanvasWidth  int    `json:"canvas_width"`
	CanvasHeight int    `json:"canvas_height"`
	GridVisible  bool   `json:"grid_visible"`
	GridSize     int    `json:"grid_size"`
	SnapToGrid   bool   `json:"snap_to_grid"`
}

func Defaults() Settings {
	return Settings{
		Theme:        ThemeLight,
		Background:   "#ffffff",
		CanvasWidth:  1920,
		CanvasHeight: 1080,
		GridVisible:  true,
		GridSize:     20,
		SnapToGrid:   false,
	}
}

// Patch is a partial settings update. Nil fields are left untouched.
type Patch struct {
	Theme        *Theme  `json:"theme,omitempty"`
	Background   *string `json:"background,omitempty"`
	CanvasWidth  *int    `json:"canvas_width,omitempty"`
	CanvasHeight *int    `json:"canvas_height,omitempty"`
	GridVisible  *bool   `json:"grid_visible,omitempty"`
	GridSize     *int    `json:"grid_size,omitempty"`
	SnapToGrid   *bool   `json:"snap_to_grid,omitempty"`
}

// Clamp forces every bounded field into its valid range. Out-of-range
// values are clamped, not rejected.
func Clamp(s Settings) Settings {
	if s.Theme != ThemeDark {
		s.Theme = ThemeLight
	}
	s.GridSize = clampInt(s.GridSize, GridMin, GridMax)
	s.CanvasWidth = clampInt(s.CanvasWidth, CanvasMinWidth, CanvasMaxWidth)
	s.CanvasHeight = clampInt(s.CanvasHeight, CanvasMinHeight, CanvasMaxHeight)
	return s
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Snap rounds a coordinate to the nearest multiple of the grid unit
func Snap(v float64, gridSize int) float64 {
	if gridSize <= 0 {
		return v
	}
	g := float64(gridSize)
	return math.Round(v/g) * g
}

// Store holds the settings of one open board session. Changes apply
// optimistically; persistence happens through the same save path as any
// other board mutation.
type Store struct {
	mu      sync.Mutex
	current Settings
}

func NewStore(s Settings) *Store {
	return &Store{current: Clamp(s)}
}

func (st *Store) Get() Settings {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.current
}

// Set applies a partial update and returns the clamped result
func (st *Store) Set(p Patch) Settings {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := st.current
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.Background != nil {
		s.Background = *p.Background
	}
	if p.CanvasWidth != nil {
		s.CanvasWidth = *p.CanvasWidth
	}
	if p.CanvasHeight != nil {
		s.CanvasHeight = *p.CanvasHeight
	}
	if p.GridVisible != nil {
		s.GridVisible = *p.GridVisible
	}
	if p.GridSize != nil {
		s.GridSize = *p.GridSize
	}
	if p.SnapToGrid != nil {
		s.SnapToGrid = *p.SnapToGrid
	}

	st.current = Clamp(s)
	return st.current
}
