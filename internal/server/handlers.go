package server

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/alkime/speakimage/internal/config"
	"github.com/alkime/speakimage/internal/imagestore"
	"github.com/alkime/speakimage/internal/session"
	"github.com/gin-gonic/gin"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "speakimage_session"

// sessionResponse is the JSON body of every /api/session call.
type sessionResponse struct {
	State   session.State `json:"state"`
	Message *Message      `json:"message,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// acquireSession resolves the caller's session from the cookie and
// (re)issues the cookie so idle expiry follows activity.
func (s *Server) acquireSession(c *gin.Context) *Session {
	id, _ := c.Cookie(SessionCookie)
	sess := s.sessions.Acquire(id)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		SessionCookie,
		sess.ID,
		int(s.config.SessionTTL.Seconds()),
		"/",
		"",
		s.config.Env == config.EnvProduction,
		true,
	)

	return sess
}

func (s *Server) respond(c *gin.Context, sess *Session, state session.State, err error) {
	resp := sessionResponse{State: state} //nolint:exhaustruct // optional fields filled below
	if msg, ok := sess.Message(); ok {
		resp.Message = &msg
	}

	if err != nil {
		resp.Error = err.Error()
		c.JSON(statusFor(err), resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// statusFor maps controller errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrEmptyAudio):
		return http.StatusBadRequest
	case session.IsRejection(err), errors.Is(err, session.ErrSessionReset):
		return http.StatusConflict
	case errors.Is(err, session.ErrTranscriptionFailed), errors.Is(err, session.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess := s.acquireSession(c)
	s.respond(c, sess, sess.Controller.State(), nil)
}

func (s *Server) handleSubmitAudio(c *gin.Context) {
	sess := s.acquireSession(c)

	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxAudioBytes)
	audio, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "recording is too large"})
			return
		}

		s.logger.Warn("Failed to read audio upload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read audio"})

		return
	}

	state, err := sess.Controller.SubmitAudio(c.Request.Context(), audio)
	s.respond(c, sess, state, err)
}

func (s *Server) handleRequestImage(c *gin.Context) {
	sess := s.acquireSession(c)

	state, err := sess.Controller.RequestImage(c.Request.Context())
	s.respond(c, sess, state, err)
}

func (s *Server) handleReset(c *gin.Context) {
	sess := s.acquireSession(c)
	s.respond(c, sess, sess.Controller.Reset(), nil)
}

// handleGetImage serves the current image. With ?download=1 it is sent as
// an attachment named after the file.
func (s *Server) handleGetImage(c *gin.Context) {
	sess := s.acquireSession(c)

	state := sess.Controller.State()
	if !state.HasImage() || !imagestore.Exists(state.ImagePath) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no image available"})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Header("Content-Type", "image/png")

	if c.Query("download") != "" {
		c.FileAttachment(state.ImagePath, filepath.Base(state.ImagePath))
		return
	}

	c.File(state.ImagePath)
}
