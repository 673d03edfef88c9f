package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/spetersoncode/mcpagent/agui"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the agent over AG-UI and the transcript viewer API",
		Long: `Serve the agent over AG-UI and the transcript viewer API.

POST /agent runs the agent on the last user message of an AG-UI
RunAgentInput and streams events as server-sent events. The /api routes
serve saved transcripts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Server.Command == "" && a.cfg.Server.URL == "" {
				a.cfg.Server.Command = defaultServerCommand()
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}

			engine, release, err := a.agentRouter(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			return a.serveHTTP(cmd.Context(), addr, engine)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8000)")
	return cmd
}

// agentRouter mounts the AG-UI endpoint and the transcript API on one engine.
func (a *app) agentRouter(ctx context.Context) (*gin.Engine, func(), error) {
	tp, flush, err := a.tracerProvider(ctx)
	if err != nil {
		return nil, nil, err
	}
	model, err := a.newModel(ctx, a.cfg.Client(a.logger))
	if err != nil {
		flush()
		return nil, nil, err
	}
	connector, err := a.newConnector(a.cfg.Server)
	if err != nil {
		flush()
		return nil, nil, err
	}
	transcripts, release, err := a.transcriptHandler(nil)
	if err != nil {
		flush()
		return nil, nil, err
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), transcripts.RequestLogger(), cors())
	transcripts.Register(engine)
	agui.NewHandler(model, connector,
		agui.WithAgentOptions(a.agentOptions(tp)...),
		agui.WithLogger(a.logger),
	).Register(engine)

	return engine, func() {
		release()
		flush()
	}, nil
}

// cors allows browser frontends on other origins to call the API.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// serveHTTP serves handler on addr until ctx is done, then shuts down
// gracefully.
func (a *app) serveHTTP(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
