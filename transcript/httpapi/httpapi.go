// Package httpapi serves saved transcripts over HTTP for log viewers.
//
// Routes:
//
//	GET    /api/directories         names of stores that hold transcripts
//	GET    /api/logs                {"logs": [...]} transcript names
//	GET    /api/logs/:filename      {"messages": [...]}
//	DELETE /api/logs                body {"directory", "filename"}
//	POST   /api/logs/delete         same as DELETE /api/logs
//
// Every route except /api/directories takes an optional "directory" query
// parameter naming the store; it defaults to the handler's default store.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spetersoncode/mcpagent/transcript"
)

// DefaultDirectory is the store name used when a request names none.
const DefaultDirectory = "logs"

// Handler serves transcripts from one or more named stores.
type Handler struct {
	stores     map[string]transcript.Store
	defaultDir string
	logger     *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithDefaultDirectory sets the store used when a request names none.
func WithDefaultDirectory(name string) Option {
	return func(h *Handler) {
		h.defaultDir = name
	}
}

// WithLogger sets the request logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// New returns a Handler over the named stores.
func New(stores map[string]transcript.Store, opts ...Option) *Handler {
	h := &Handler{
		stores:     stores,
		defaultDir: DefaultDirectory,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the transcript routes on r.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.GET("/directories", h.listDirectories)
	api.GET("/logs", h.listLogs)
	api.GET("/logs/:filename", h.getLog)
	api.DELETE("/logs", h.deleteLog)
	api.POST("/logs/delete", h.deleteLog)
}

// NewRouter returns a gin engine with recovery, request logging and the
// transcript routes.
func NewRouter(h *Handler) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), h.RequestLogger())
	h.Register(engine)
	return engine
}

// RequestLogger logs each request at Info with its status and duration.
func (h *Handler) RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Info("request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// store resolves the store named by directory, writing an error response
// and returning false when it cannot.
func (h *Handler) store(c *gin.Context, directory string) (transcript.Store, bool) {
	if directory == "" {
		directory = h.defaultDir
	}
	if err := transcript.ValidateName(directory); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid directory name"})
		return nil, false
	}
	s, ok := h.stores[directory]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown directory"})
		return nil, false
	}
	return s, true
}

func (h *Handler) listDirectories(c *gin.Context) {
	names := make([]string, 0, len(h.stores))
	for name, s := range h.stores {
		logs, err := s.List(c.Request.Context())
		if err != nil {
			h.logger.Warn("failed to list transcripts", "directory", name, "error", err)
			continue
		}
		if len(logs) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	c.JSON(http.StatusOK, gin.H{"directories": names})
}

func (h *Handler) listLogs(c *gin.Context) {
	s, ok := h.store(c, c.Query("directory"))
	if !ok {
		return
	}
	logs, err := s.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list transcripts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (h *Handler) getLog(c *gin.Context) {
	s, ok := h.store(c, c.Query("directory"))
	if !ok {
		return
	}
	messages, err := s.Load(c.Request.Context(), c.Param("filename"))
	switch {
	case errors.Is(err, transcript.ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filename"})
	case errors.Is(err, transcript.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Log file not found"})
	case err != nil:
		h.logger.Error("failed to read transcript", "filename", c.Param("filename"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read log file"})
	default:
		c.JSON(http.StatusOK, gin.H{"messages": messages})
	}
}

type deleteRequest struct {
	Directory string `json:"directory"`
	Filename  string `json:"filename"`
}

func (h *Handler) deleteLog(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Filename is required"})
		return
	}
	if req.Directory == "" {
		req.Directory = c.Query("directory")
	}
	s, ok := h.store(c, req.Directory)
	if !ok {
		return
	}

	err := s.Delete(c.Request.Context(), req.Filename)
	switch {
	case errors.Is(err, transcript.ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filename"})
	case errors.Is(err, transcript.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Log file not found"})
	case err != nil:
		h.logger.Error("failed to delete transcript", "filename", req.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete log file"})
	default:
		h.logger.Info("transcript deleted", "filename", req.Filename)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "File deleted successfully"})
	}
}
