package boardapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"designboards/internal/board"
	"designboards/internal/errors"
	"designboards/internal/settings"
	"designboards/internal/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type CreateBoardRequest struct {
	Title string `json:"title" binding:"required,min=1,max=255"`
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateBoardRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	userID, _ := c.Get("user_id")

	resp, err := h.service.CreateBoard(c.Request.Context(), userID.(uint64), form.Title)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) ShowUserBoards(c *gin.Context) {
	userID, _ := c.Get("user_id")

	page, pageSize := utils.GetPaginationParams(c)
	result, err := h.service.ListBoards(c.Request.Context(), userID.(uint64), page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ShowBoard(c *gin.Context) {
	resp, err := h.service.GetBoard(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type SaveObjectsRequest struct {
	Objects []board.Object `json:"objects" binding:"required"`
}

// SaveObjects is the durable write the sync layer debounces into. Saving
// is a full-state replace keyed by object id, so repeats are harmless.
func (h *Handler) SaveObjects(c *gin.Context) {
	var form SaveObjectsRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.SaveObjects(c.Request.Context(), c.Param("id"), form.Objects); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved": len(form.Objects)})
}

// UpdateSettings is the single settings entry point for any settings UI
func (h *Handler) UpdateSettings(c *gin.Context) {
	var patch settings.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	applied, err := h.service.UpdateSettings(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, applied)
}

func (h *Handler) DeleteBoard(c *gin.Context) {
	userID, _ := c.Get("user_id")

	if err := h.service.DeleteBoard(c.Request.Context(), c.Param("id"), userID.(uint64)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// ShowBoardState serves sync peers over the internal route
func (h *Handler) ShowBoardState(c *gin.Context) {
	data, err := h.service.LoadBoard(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       data.ID,
		"title":    data.Title,
		"settings": data.Settings,
		"objects":  data.Objects,
	})
}
