package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/mcpagent/mcp"
)

func wttr(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "4" {
			http.Error(w, "bad format", http.StatusBadRequest)
			return
		}
		if r.URL.Path == "/Atlantis" {
			http.Error(w, "Unknown location", http.StatusNotFound)
			return
		}
		w.Write([]byte(r.URL.Path[1:] + ": ☀️ +20°C ↗11km/h\n"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	s := New(WithBaseURL(wttr(t).URL + "/"))
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		got, err := s.Fetch(ctx, "Paris")
		require.NoError(t, err)
		assert.Equal(t, "Paris: ☀️ +20°C ↗11km/h\n", got)
	})

	t.Run("city with spaces", func(t *testing.T) {
		got, err := s.Fetch(ctx, "New York")
		require.NoError(t, err)
		assert.Equal(t, "New York: ☀️ +20°C ↗11km/h\n", got)
	})

	t.Run("empty city", func(t *testing.T) {
		_, err := s.Fetch(ctx, "  ")
		assert.ErrorContains(t, err, "city is required")
	})

	t.Run("service error", func(t *testing.T) {
		_, err := s.Fetch(ctx, "Atlantis")
		assert.ErrorContains(t, err, "returned 404: Unknown location")
	})
}

func TestTools(t *testing.T) {
	ctx := context.Background()
	s := New(WithBaseURL(wttr(t).URL))

	session, err := mcp.NewInProcessConnector(mcp.NewServer(s.Tools())).Connect(ctx)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx)
	require.NoError(t, err)
	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}
	assert.ElementsMatch(t, []string{"fetch_weather", "finish_task"}, names)

	result, err := session.CallTool(ctx, "fetch_weather", map[string]any{"city": "Paris"})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	require.Len(t, result.Parts, 1)
	assert.Equal(t, "Paris: ☀️ +20°C ↗11km/h\n", result.Parts[0].Text)

	result, err = session.CallTool(ctx, "fetch_weather", map[string]any{})
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = session.CallTool(ctx, "finish_task", nil)
	require.NoError(t, err)
	assert.Equal(t, FinishMessage, result.Parts[0].Text)
}
