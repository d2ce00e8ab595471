package asset

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"designboards/internal/errors"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Upload takes a multipart file plus a category tag and answers with the
// stable public URL. An upload failure never blocks other canvas work; the
// client just gets the error for this one file.
func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.Error(errors.BadRequest("File is required", err))
		return
	}

	category := c.PostForm("category")

	src, err := file.Open()
	if err != nil {
		c.Error(errors.UnprocessableEntity("Can't read upload", err))
		return
	}
	defer src.Close()

	url, err := h.store.Save(c.Request.Context(), category, file.Filename, src)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}
