package boardapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"designboards/internal/board"
	"designboards/internal/errors"
	"designboards/internal/middleware"
	"designboards/internal/session"
	"designboards/internal/settings"
)

// mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) CreateBoard(ctx context.Context, ownerID uint64, title string) (*BoardResponse, error) {
	args := m.Called(ctx, ownerID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BoardResponse), args.Error(1)
}

func (m *MockService) GetBoard(ctx context.Context, boardID string) (*BoardResponse, error) {
	args := m.Called(ctx, boardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BoardResponse), args.Error(1)
}

func (m *MockService) ListBoards(ctx context.Context, ownerID uint64, page, pageSize int) (*PaginatedBoards, error) {
	args := m.Called(ctx, ownerID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PaginatedBoards), args.Error(1)
}

func (m *MockService) SaveObjects(ctx context.Context, boardID string, objects []board.Object) error {
	args := m.Called(ctx, boardID, objects)
	return args.Error(0)
}

func (m *MockService) UpdateSettings(ctx context.Context, boardID string, p settings.Patch) (settings.Settings, error) {
	args := m.Called(ctx, boardID, p)
	return args.Get(0).(settings.Settings), args.Error(1)
}

func (m *MockService) DeleteBoard(ctx context.Context, boardID string, userID uint64) error {
	args := m.Called(ctx, boardID, userID)
	return args.Error(0)
}

func (m *MockService) LoadBoard(ctx context.Context, boardID string) (*session.BoardData, error) {
	args := m.Called(ctx, boardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.BoardData), args.Error(1)
}

func (m *MockService) SaveSettings(ctx context.Context, boardID string, s settings.Settings) error {
	args := m.Called(ctx, boardID, s)
	return args.Error(0)
}

// fakeAuth stands in for the JWT middleware in handler tests
func fakeAuth(userID uint64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func setupRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.Use(fakeAuth(7))

	router.POST("/boards", handler.Create)
	router.GET("/boards", handler.ShowUserBoards)
	router.GET("/boards/:id", handler.ShowBoard)
	router.PUT("/boards/:id/objects", handler.SaveObjects)
	router.PUT("/boards/:id/settings", handler.UpdateSettings)
	router.DELETE("/boards/:id", handler.DeleteBoard)
	return router
}

func TestCreateBoard_Success(t *testing.T) {
	service := new(MockService)
	router := setupRouter(NewHandler(service))

	resp := &BoardResponse{
		ID:        "board-1",
		OwnerID:   7,
		Title:     "Launch mockups",
		Settings:  settings.Defaults(),
		CreatedAt: time.Now().UTC(),
	}
	service.On("CreateBoard", mock.Anything, uint64(7), "Launch mockups").Return(resp, nil)

	body, _ := json.Marshal(CreateBoardRequest{Title: "Launch mockups"})
	req := httptest.NewRequest(http.MethodPost, "/boards", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var got BoardResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "board-1", got.ID)
	service.AssertExpectations(t)
}

func TestCreateBoard_MissingTitle(t *testing.T) {
	service := new(MockService)
	router := setupRouter(NewHandler(service))

	req := httptest.NewRequest(http.MethodPost, "/boards", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "CreateBoard")
}

func TestShowBoard_NotFound(t *testing.T) {
	service := new(MockService)
	router := setupRouter(NewHandler(service))

	service.On("GetBoard", mock.Anything, "missing").
		Return(nil, errors.NotFound("Board not found", nil))

	req := httptest.NewRequest(http.MethodGet, "/boards/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShowUserBoards_Paginates(t *testing.T) {
	service := new(MockService)
	router := setupRouter(NewHandler(service))

	result := &PaginatedBoards{
		Data: []BoardResponse{{ID: "board-1", Title: "One"}},
		Meta: BoardsMeta{Total: 1, CurrentPage: 2, PerPage: 5, TotalPage: 1},
	}
	service.On("ListBoards", mock.Anything, uint64(7), 2, 5).Return(result, nil)

	req := httptest.NewRequest(http.MethodGet, "/boards?page=2&per_page=5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestSaveObjects_Success(t *testing.T) {
	service := new(MockService)
	router := setupRouter(NewHandler(service))

	objects := []board.Object{{
		ID:    "obj-1",
		Kind:  board.KindShape,
		X:     100, Y: 100, Width: 50, Height: 50,
		Shape: &board.ShapeProps{Shape: board.ShapeRect, Fill: "#ff0000"},
	}}
	service.On("SaveObjects", mock.Anything, "board-1", mock.Anything).Return(nil)

	body, _ := json.Marshal(SaveObjectsRequest{Objects: objects})
	req := httptest.NewRequest(http.MethodPut, "/boards/board-1/objects", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestSaveObjects_MalformedBody(t *testing.T) {
	service := new(MockService)
	router := setupRouter(NewHandler(service))

	req := httptest.NewRequest(http.MethodPut, "/boards/board-1/objects", bytes.NewReader([]byte(`{"objects": "nope"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "SaveObjects")
}

func TestUpdateSettings_Success(t *testing.T) {
	service := new(MockService)
	router := setupRouter(NewHandler(service))

	applied := settings.Defaults()
	applied.Theme = settings.ThemeDark
	applied.GridSize = 25
	service.On("UpdateSettings", mock.Anything, "board-1", mock.Anything).Return(applied, nil)

	req := httptest.NewRequest(http.MethodPut, "/boards/board-1/settings",
		bytes.NewReader([]byte(`{"theme": "dark", "grid_size": 25}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got settings.Settings
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, settings.ThemeDark, got.Theme)
	assert.Equal(t, 25, got.GridSize)
}

func TestSessionLifecycle(t *testing.T) {
	service := new(MockService)
	service.On("LoadBoard", mock.Anything, "board-1").Return(&session.BoardData{
		ID:       "board-1",
		OwnerID:  7,
		Title:    "Launch mockups",
		Settings: settings.Defaults(),
	}, nil)

	sessions := session.NewManager(service, nil, nil, session.Options{
		SaveDebounce: 20 * time.Millisecond,
	})
	defer sessions.CloseAll()
	handler := NewSessionHandler(sessions)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.POST("/internal/boards/:id/session", handler.Open)
	router.GET("/internal/boards/:id/session", handler.Show)
	router.DELETE("/internal/boards/:id/session", handler.Close)

	// no session open yet
	req := httptest.NewRequest(http.MethodGet, "/internal/boards/board-1/session", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/internal/boards/board-1/session", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/internal/boards/board-1/session", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "board-1")

	req = httptest.NewRequest(http.MethodDelete, "/internal/boards/board-1/session", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// gone after close
	req = httptest.NewRequest(http.MethodGet, "/internal/boards/board-1/session", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	service.AssertExpectations(t)
}

func TestDeleteBoard_Forbidden(t *testing.T) {
	service := new(MockService)
	router := setupRouter(NewHandler(service))

	service.On("DeleteBoard", mock.Anything, "board-1", uint64(7)).
		Return(errors.Forbidden("Only owner can delete board", nil))

	req := httptest.NewRequest(http.MethodDelete, "/boards/board-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
