package transport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/omarwdev/visiontext/internal/config"
	"github.com/omarwdev/visiontext/internal/handlers"
	"github.com/omarwdev/visiontext/internal/models"
)

const sessionCookie = "session_id"

// HTTPTransport exposes the upload, frame-selection and chat flows over HTTP.
// It owns request decoding, the session cookie, and error-to-status mapping;
// all semantics live in the handlers.
type HTTPTransport struct {
	server  *gin.Engine
	httpSrv *http.Server
	chat    *handlers.ChatHandler
	upload  *handlers.UploadHandler
	config  *config.Config
}

func NewHTTPTransport(cfg *config.Config, chat *handlers.ChatHandler, upload *handlers.UploadHandler) *HTTPTransport {
	t := &HTTPTransport{
		server: gin.Default(),
		chat:   chat,
		upload: upload,
		config: cfg,
	}
	t.registerRoutes()

	return t
}

func (t *HTTPTransport) registerRoutes() {
	t.server.POST("/image", t.handleImageUpload)
	t.server.GET("/uploads/:filename", t.handleUploadedFile)
	t.server.POST("/improve", t.handleImprove)

	t.server.POST("/video", t.handleVideoUpload)
	t.server.GET("/select_frame/:uid", t.handleFrameInfo)
	t.server.POST("/select_frame/:uid", t.handleFrameSelect)

	t.server.GET("/chat", t.handleHistory)
	t.server.POST("/chat", t.handleChat)
	t.server.POST("/logout", t.handleLogout)
}

// Handler exposes the underlying HTTP handler, mainly for tests.
func (t *HTTPTransport) Handler() http.Handler {
	return t.server
}

// Start begins serving. It returns once the listener is running; failures
// after that are logged.
func (t *HTTPTransport) Start() error {
	t.httpSrv = &http.Server{
		Addr:    ":" + t.config.HTTPPort,
		Handler: t.server,
	}

	go func() {
		if err := t.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	log.Printf("HTTP transport listening on :%s", t.config.HTTPPort)
	return nil
}

// Close shuts the server down, letting in-flight requests finish.
func (t *HTTPTransport) Close() error {
	if t.httpSrv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := t.httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	log.Println("HTTP transport closed")
	return nil
}

func (t *HTTPTransport) handleImageUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		t.sendError(c, fmt.Errorf("%w: no file part", models.ErrInvalidInput))
		return
	}

	name, err := t.upload.CheckImage(file.Filename)
	if err != nil {
		t.sendError(c, err)
		return
	}
	if err := c.SaveUploadedFile(file, t.upload.StoredPath(name)); err != nil {
		t.sendError(c, fmt.Errorf("failed to store upload: %w", err))
		return
	}

	response, err := t.upload.ProcessImage(t.sessionID(c), name)
	if err != nil {
		t.sendError(c, err)
		return
	}

	t.setSessionCookie(c, response.SessionID)
	c.JSON(http.StatusOK, response)
}

func (t *HTTPTransport) handleUploadedFile(c *gin.Context) {
	name := handlers.SanitizeFilename(c.Param("filename"))
	if name == "" {
		t.sendError(c, fmt.Errorf("%w: bad filename", models.ErrInvalidInput))
		return
	}
	c.File(t.upload.StoredPath(name))
}

func (t *HTTPTransport) handleImprove(c *gin.Context) {
	var req models.ImproveRequest
	if err := c.ShouldBind(&req); err != nil {
		t.sendError(c, fmt.Errorf("%w: could not parse request body", models.ErrInvalidInput))
		return
	}

	response, err := t.chat.ProcessMessage(c.Request.Context(), t.sessionID(c), req.EditedText)
	if err != nil {
		t.sendError(c, err)
		return
	}

	t.setSessionCookie(c, response.SessionID)
	c.JSON(http.StatusOK, response)
}

func (t *HTTPTransport) handleVideoUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		t.sendError(c, fmt.Errorf("%w: no file part", models.ErrInvalidInput))
		return
	}

	name, err := t.upload.CheckVideo(file.Filename, file.Size)
	if err != nil {
		t.sendError(c, err)
		return
	}
	if err := c.SaveUploadedFile(file, t.upload.StoredPath(name)); err != nil {
		t.sendError(c, fmt.Errorf("failed to store upload: %w", err))
		return
	}

	log.Printf("Processing video %s, this may take a while", name)
	response, err := t.upload.ProcessVideo(c.Request.Context(), t.sessionID(c), name)
	if err != nil {
		t.sendError(c, err)
		return
	}

	t.setSessionCookie(c, response.SessionID)
	c.JSON(http.StatusOK, response)
}

func (t *HTTPTransport) handleFrameInfo(c *gin.Context) {
	response, err := t.upload.VideoInfo(t.sessionID(c), c.Param("uid"))
	if err != nil {
		t.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (t *HTTPTransport) handleFrameSelect(c *gin.Context) {
	var req models.FrameRequest
	if err := c.ShouldBind(&req); err != nil || req.FrameNumber == nil {
		t.sendError(c, fmt.Errorf("%w: frame number must be an integer", models.ErrInvalidInput))
		return
	}

	response, err := t.upload.SelectFrame(t.sessionID(c), c.Param("uid"), *req.FrameNumber)
	if err != nil {
		t.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (t *HTTPTransport) handleHistory(c *gin.Context) {
	response := t.chat.History(t.sessionID(c))
	t.setSessionCookie(c, response.SessionID)
	c.JSON(http.StatusOK, response)
}

func (t *HTTPTransport) handleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBind(&req); err != nil {
		t.sendError(c, fmt.Errorf("%w: could not parse request body", models.ErrInvalidInput))
		return
	}

	response, err := t.chat.ProcessMessage(c.Request.Context(), t.sessionID(c), req.Message)
	if err != nil {
		t.sendError(c, err)
		return
	}

	t.setSessionCookie(c, response.SessionID)
	c.JSON(http.StatusOK, response)
}

func (t *HTTPTransport) handleLogout(c *gin.Context) {
	t.chat.Logout(t.sessionID(c))
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully."})
}

func (t *HTTPTransport) sessionID(c *gin.Context) string {
	id, _ := c.Cookie(sessionCookie)
	return id
}

func (t *HTTPTransport) setSessionCookie(c *gin.Context, id string) {
	maxAge := int(t.config.SessionTimeout.Seconds())
	c.SetCookie(sessionCookie, id, maxAge, "/", "", false, true)
}

func (t *HTTPTransport) sendError(c *gin.Context, err error) {
	log.Printf("Request rejected: %v", err)
	c.JSON(errorStatus(err), models.ErrorResponse{Error: err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
