package boardapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"designboards/internal/board"
	apiError "designboards/internal/errors"
	"designboards/internal/settings"
	"designboards/redis"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, ownerID uint64, b *Board) error {
	args := m.Called(ctx, ownerID, b)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (*Board, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Board), args.Error(1)
}

func (m *MockRepository) ListByOwner(ctx context.Context, ownerID uint64, page, pageSize int) ([]Board, BoardsMeta, error) {
	args := m.Called(ctx, ownerID, page, pageSize)
	return args.Get(0).([]Board), args.Get(1).(BoardsMeta), args.Error(2)
}

func (m *MockRepository) ReplaceObjects(ctx context.Context, boardID string, rows []BoardObject) error {
	args := m.Called(ctx, boardID, rows)
	return args.Error(0)
}

func (m *MockRepository) UpdateSettings(ctx context.Context, b *Board) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func testBoard() *Board {
	b := &Board{ID: "board-1", OwnerID: 7, Title: "Launch mockups"}
	b.ApplySettings(settings.Defaults())
	return b
}

func newTestService(repo *MockRepository) Service {
	return NewService(repo, redis.NewCache(nil))
}

func TestSaveObjects_ClampsAgainstCanvas(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	repo.On("FindByID", mock.Anything, "board-1").Return(testBoard(), nil)

	var saved []BoardObject
	repo.On("ReplaceObjects", mock.Anything, "board-1", mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(2).([]BoardObject)
		}).Return(nil)

	err := service.SaveObjects(context.Background(), "board-1", []board.Object{{
		ID:    "obj-1",
		Kind:  board.KindShape,
		X:     -50, Y: 3000, Width: 50, Height: 50,
		Shape: &board.ShapeProps{Shape: board.ShapeRect},
	}})
	assert.NoError(t, err)
	assert.Len(t, saved, 1)
	assert.Equal(t, 0.0, saved[0].X)
	assert.Equal(t, 1030.0, saved[0].Y) // 1080 - 50
}

func TestSaveObjects_RejectsMalformedObject(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	repo.On("FindByID", mock.Anything, "board-1").Return(testBoard(), nil)

	err := service.SaveObjects(context.Background(), "board-1", []board.Object{{ID: "", Kind: ""}})

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.Status)
	repo.AssertNotCalled(t, "ReplaceObjects")
}

func TestSaveObjects_BoardNotFound(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	repo.On("FindByID", mock.Anything, "missing").Return(nil, gorm.ErrRecordNotFound)

	err := service.SaveObjects(context.Background(), "missing", nil)

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestUpdateSettings_ClampsGridSize(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	repo.On("FindByID", mock.Anything, "board-1").Return(testBoard(), nil)
	repo.On("UpdateSettings", mock.Anything, mock.Anything).Return(nil)

	tooBig := 500
	applied, err := service.UpdateSettings(context.Background(), "board-1", settings.Patch{GridSize: &tooBig})
	assert.NoError(t, err)
	assert.Equal(t, 100, applied.GridSize)

	tooSmall := 3
	applied, err = service.UpdateSettings(context.Background(), "board-1", settings.Patch{GridSize: &tooSmall})
	assert.NoError(t, err)
	assert.Equal(t, 5, applied.GridSize)
}

func TestDeleteBoard_OnlyOwner(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	repo.On("FindByID", mock.Anything, "board-1").Return(testBoard(), nil)

	err := service.DeleteBoard(context.Background(), "board-1", 99)

	var apiErr *apiError.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
	repo.AssertNotCalled(t, "Delete")
}

func TestDeleteBoard_Owner(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	repo.On("FindByID", mock.Anything, "board-1").Return(testBoard(), nil)
	repo.On("Delete", mock.Anything, "board-1").Return(nil)

	assert.NoError(t, service.DeleteBoard(context.Background(), "board-1", 7))
	repo.AssertExpectations(t)
}

func TestObjectRow_RoundTrip(t *testing.T) {
	o := board.Object{
		ID:     "obj-1",
		Kind:   board.KindHotspot,
		X:      10, Y: 20, Width: 100, Height: 50,
		ZIndex: 3,
		Hotspot: &board.HotspotProps{
			TargetType: "product",
			TargetID:   "SKU-881",
		},
	}

	row, err := FromObject("board-1", o)
	assert.NoError(t, err)
	assert.Equal(t, "board-1", row.BoardID)

	back, err := row.ToObject()
	assert.NoError(t, err)
	assert.Equal(t, o, back)
}
