package agui

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ai "github.com/spetersoncode/mcpagent"
	"github.com/spetersoncode/mcpagent/agent"
)

// Handler runs the agent for AG-UI requests and streams events over SSE.
//
// Each request gets its own Agent, so concurrent requests do not share
// conversation memory.
type Handler struct {
	model     ai.Model
	connector ai.Connector
	agentOpts []agent.Option
	logger    *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithAgentOptions sets options applied to every per-request Agent.
// The observer option is replaced by the request's stream.
func WithAgentOptions(opts ...agent.Option) HandlerOption {
	return func(h *Handler) {
		h.agentOpts = append(h.agentOpts, opts...)
	}
}

// WithLogger sets the request logger (default: slog.Default()).
func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = l
	}
}

// NewHandler returns a Handler generating with model and calling tools
// through connector.
func NewHandler(model ai.Model, connector ai.Connector, opts ...HandlerOption) *Handler {
	h := &Handler{
		model:     model,
		connector: connector,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts POST /agent and GET /health on r.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/agent", h.run)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (h *Handler) run(c *gin.Context) {
	start := time.Now()

	var input RunAgentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	log := h.logger.With("run_id", input.RunID, "thread_id", input.ThreadID)

	prepared, err := input.Prepare()
	if err != nil {
		log.Warn("invalid input", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	var a *agent.Agent
	stream := NewStream(c.Writer, NewMapper(prepared.ThreadID, prepared.RunID),
		WithSnapshot(func() []ai.Message { return a.Transcript() }),
		WithStreamLogger(log),
	)
	opts := append(append([]agent.Option{}, h.agentOpts...), agent.WithObserver(stream))
	a = agent.New(h.model, h.connector, opts...)

	log.Info("request started")
	result, err := a.Run(c.Request.Context(), prepared.Task)

	attrs := []any{
		"duration_ms", time.Since(start).Milliseconds(),
		"events_sent", stream.Count(),
	}
	switch {
	case err != nil:
		log.Error("request failed", append(attrs, "error", err)...)
	case stream.Err() != nil:
		log.Error("request failed", append(attrs, "error", stream.Err())...)
	default:
		log.Info("request completed", append(attrs, "steps", result.Steps, "termination", result.Termination)...)
	}
}
