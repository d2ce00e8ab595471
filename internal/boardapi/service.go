package boardapi

import (
	"context"
	defError "errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"designboards/internal/board"
	"designboards/internal/errors"
	"designboards/internal/session"
	"designboards/internal/settings"
	"designboards/redis"
)

type Service interface {
	CreateBoard(ctx context.Context, ownerID uint64, title string) (*BoardResponse, error)
	GetBoard(ctx context.Context, boardID string) (*BoardResponse, error)
	ListBoards(ctx context.Context, ownerID uint64, page, pageSize int) (*PaginatedBoards, error)
	SaveObjects(ctx context.Context, boardID string, objects []board.Object) error
	UpdateSettings(ctx context.Context, boardID string, p settings.Patch) (settings.Settings, error)
	DeleteBoard(ctx context.Context, boardID string, userID uint64) error

	// session.Persistence, consumed by the board engine
	LoadBoard(ctx context.Context, boardID string) (*session.BoardData, error)
	SaveSettings(ctx context.Context, boardID string, s settings.Settings) error
}

type DefaultService struct {
	repository BoardRepository
	cache      *redis.Cache
}

func NewService(repository BoardRepository, cache *redis.Cache) Service {
	return &DefaultService{
		repository: repository,
		cache:      cache,
	}
}

type BoardResponse struct {
	ID        string            `json:"id"`
	OwnerID   uint64            `json:"owner_id"`
	Title     string            `json:"title"`
	Settings  settings.Settings `json:"settings"`
	Objects   []board.Object    `json:"objects,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type PaginatedBoards struct {
	Data []BoardResponse `json:"data"`
	Meta BoardsMeta      `json:"meta"`
}

func (s *DefaultService) CreateBoard(ctx context.Context, ownerID uint64, title string) (*BoardResponse, error) {
	if title == "" {
		return nil, errors.BadRequest("Title cannot be empty", nil)
	}

	b := &Board{Title: title}
	b.ApplySettings(settings.Defaults())

	if err := s.repository.Create(ctx, ownerID, b); err != nil {
		return nil, err
	}

	// increase cache key, so any new fetch will get new version
	versionKey := fmt.Sprintf("user:%d:boards:version", ownerID)
	s.cache.IncrementVersion(ctx, versionKey)

	return toBoardResponse(b, nil), nil
}

func (s *DefaultService) GetBoard(ctx context.Context, boardID string) (*BoardResponse, error) {
	b, err := s.repository.FindByID(ctx, boardID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Board not found", err)
		}
		return nil, err
	}

	objects, err := rowsToObjects(b.Objects)
	if err != nil {
		return nil, err
	}

	return toBoardResponse(b, objects), nil
}

func (s *DefaultService) ListBoards(ctx context.Context, ownerID uint64, page, pageSize int) (*PaginatedBoards, error) {
	// Get the current data version for this user's boards
	versionKey := fmt.Sprintf("user:%d:boards:version", ownerID)
	v := s.cache.GetVersion(ctx, versionKey)

	cacheKey := fmt.Sprintf("boards:u:%d:v:%d:p:%d:ps:%d", ownerID, v, page, pageSize)

	var result PaginatedBoards
	// get data from cache
	found, _ := s.cache.Get(ctx, cacheKey, &result)
	if found {
		return &result, nil
	}

	boards, meta, err := s.repository.ListByOwner(ctx, ownerID, page, pageSize)
	if err != nil {
		return nil, err
	}

	data := make([]BoardResponse, 0, len(boards))
	for i := range boards {
		data = append(data, *toBoardResponse(&boards[i], nil))
	}
	result = PaginatedBoards{Data: data, Meta: meta}

	// set value to cache
	go s.cache.Set(context.Background(), cacheKey, result, 24*time.Hour)

	return &result, nil
}

// SaveObjects replaces the stored object model with the given one. Objects
// are clamped against the board's canvas before hitting the rows.
func (s *DefaultService) SaveObjects(ctx context.Context, boardID string, objects []board.Object) error {
	b, err := s.repository.FindByID(ctx, boardID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Board not found", err)
		}
		return err
	}

	cfg := b.SettingsValue()
	bounds := board.Bounds{Width: float64(cfg.CanvasWidth), Height: float64(cfg.CanvasHeight)}

	rows := make([]BoardObject, 0, len(objects))
	for _, o := range objects {
		if o.ID == "" || o.Kind == "" {
			return errors.UnprocessableEntity("Malformed object", nil)
		}
		row, err := FromObject(boardID, o.ClampTo(bounds))
		if err != nil {
			return errors.UnprocessableEntity("Malformed object", err)
		}
		rows = append(rows, row)
	}

	return s.repository.ReplaceObjects(ctx, boardID, rows)
}

func (s *DefaultService) UpdateSettings(ctx context.Context, boardID string, p settings.Patch) (settings.Settings, error) {
	b, err := s.repository.FindByID(ctx, boardID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return settings.Settings{}, errors.NotFound("Board not found", err)
		}
		return settings.Settings{}, err
	}

	store := settings.NewStore(b.SettingsValue())
	applied := store.Set(p)
	b.ApplySettings(applied)

	if err := s.repository.UpdateSettings(ctx, b); err != nil {
		return settings.Settings{}, err
	}

	return applied, nil
}

func (s *DefaultService) DeleteBoard(ctx context.Context, boardID string, userID uint64) error {
	b, err := s.repository.FindByID(ctx, boardID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Board not found", err)
		}
		return err
	}

	if b.OwnerID != userID {
		return errors.Forbidden("Only owner can delete board", nil)
	}

	if err := s.repository.Delete(ctx, boardID); err != nil {
		return err
	}

	// increase cache key, so any new fetch will get new version
	versionKey := fmt.Sprintf("user:%d:boards:version", userID)
	s.cache.IncrementVersion(ctx, versionKey)

	return nil
}

// LoadBoard implements session.Persistence for the board engine
func (s *DefaultService) LoadBoard(ctx context.Context, boardID string) (*session.BoardData, error) {
	b, err := s.repository.FindByID(ctx, boardID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Board not found", err)
		}
		return nil, err
	}

	objects, err := rowsToObjects(b.Objects)
	if err != nil {
		return nil, err
	}

	return &session.BoardData{
		ID:       b.ID,
		OwnerID:  b.OwnerID,
		Title:    b.Title,
		Settings: b.SettingsValue(),
		Objects:  objects,
	}, nil
}

// SaveSettings implements session.Persistence for the board engine
func (s *DefaultService) SaveSettings(ctx context.Context, boardID string, applied settings.Settings) error {
	b := &Board{ID: boardID}
	b.ApplySettings(applied)
	return s.repository.UpdateSettings(ctx, b)
}

func toBoardResponse(b *Board, objects []board.Object) *BoardResponse {
	return &BoardResponse{
		ID:        b.ID,
		OwnerID:   b.OwnerID,
		Title:     b.Title,
		Settings:  b.SettingsValue(),
		Objects:   objects,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func rowsToObjects(rows []BoardObject) ([]board.Object, error) {
	objects := make([]board.Object, 0, len(rows))
	for i := range rows {
		o, err := rows[i].ToObject()
		if err != nil {
			return nil, err
		}
		objects = append(objects, o)
	}
	return objects, nil
}
