package boardapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"designboards/internal/errors"
	"designboards/internal/render"
	"designboards/internal/session"
	"designboards/internal/settings"
)

// SessionHandler exposes the session arena over the internal routes. A
// server-hosted session is headless: it renders into memory and keeps a
// live merged view of the board by following the change feed, so sync
// peers can read converged state without a client attached.
type SessionHandler struct {
	sessions *session.Manager
}

func NewSessionHandler(sessions *session.Manager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Open starts (or returns) the headless session for a board
func (h *SessionHandler) Open(c *gin.Context) {
	boardID := c.Param("id")
	surface := render.NewAdapter(render.NewMemoryRenderer(), settings.NewStore(settings.Defaults()))

	// the session outlives the request, so it is not tied to its context
	ctrl, err := h.sessions.Open(context.Background(), boardID, surface)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"board_id": ctrl.BoardID(),
		"title":    ctrl.Title(),
		"objects":  len(ctrl.Objects()),
	})
}

// Show reports the live state of an open session
func (h *SessionHandler) Show(c *gin.Context) {
	ctrl, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.Error(errors.NotFound("No open session for board", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"board_id": ctrl.BoardID(),
		"objects":  ctrl.Objects(),
		"settings": ctrl.Settings(),
		"unsaved":  ctrl.Unsaved(),
	})
}

// Close tears the session down, flushing its pending save
func (h *SessionHandler) Close(c *gin.Context) {
	if err := h.sessions.Close(c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"closed": c.Param("id")})
}
