package transcript

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	ai "github.com/spetersoncode/mcpagent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDir(t *testing.T, times ...time.Time) *Dir {
	t.Helper()
	d := NewDir(filepath.Join(t.TempDir(), "logs"))
	i := 0
	d.now = func() time.Time {
		ts := times[min(i, len(times)-1)]
		i++
		return ts
	}
	return d
}

func TestDirSaveLoad(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	d := newTestDir(t, ts)

	name, err := d.Save(ctx, sample)
	require.NoError(t, err)
	assert.Equal(t, "messages_20240309_140507.jsonl", name)
	assert.FileExists(t, filepath.Join(d.Path(), name))

	got, err := d.Load(ctx, name)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ai.RoleSystem, got[0].Role)
	assert.Equal(t, sample[2].Content, got[2].Content)
}

func TestDirSaveSameSecond(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	d := newTestDir(t, ts)

	first, err := d.Save(ctx, sample)
	require.NoError(t, err)
	second, err := d.Save(ctx, sample[:1])
	require.NoError(t, err)

	assert.Equal(t, "messages_20240309_140507.jsonl", first)
	assert.Equal(t, "messages_20240309_140507_1.jsonl", second)

	got, err := d.Load(ctx, first)
	require.NoError(t, err)
	assert.Len(t, got, 3, "first transcript must not be overwritten")
}

func TestDirList(t *testing.T) {
	ctx := context.Background()

	t.Run("missing directory is empty", func(t *testing.T) {
		d := NewDir(filepath.Join(t.TempDir(), "absent"))
		names, err := d.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)
		assert.NotNil(t, names)
	})

	t.Run("newest first and only jsonl", func(t *testing.T) {
		d := newTestDir(t,
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local),
			time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local),
		)
		_, err := d.Save(ctx, sample)
		require.NoError(t, err)
		_, err = d.Save(ctx, sample)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(d.Path(), "notes.txt"), []byte("x"), 0o644))
		require.NoError(t, os.Mkdir(filepath.Join(d.Path(), "dir.jsonl"), 0o755))

		names, err := d.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"messages_20240201_000000.jsonl",
			"messages_20240101_000000.jsonl",
		}, names)
	})
}

func TestDirLoadJSONArray(t *testing.T) {
	d := NewDir(t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(d.Path(), "legacy.jsonl"),
		[]byte(`[{"role":"user","content":"hi"}]`), 0o644))

	got, err := d.Load(context.Background(), "legacy.jsonl")
	require.NoError(t, err)
	assert.Equal(t, []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, got)
}

func TestDirErrors(t *testing.T) {
	ctx := context.Background()
	d := NewDir(t.TempDir())

	_, err := d.Load(ctx, "missing.jsonl")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, d.Delete(ctx, "missing.jsonl"), ErrNotFound)

	_, err = d.Load(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidName)

	assert.ErrorIs(t, d.Delete(ctx, `..\x.jsonl`), ErrInvalidName)
}

func TestDirDelete(t *testing.T) {
	ctx := context.Background()
	d := newTestDir(t, time.Now())

	name, err := d.Save(ctx, sample)
	require.NoError(t, err)
	require.NoError(t, d.Delete(ctx, name))

	names, err := d.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestNewDirExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	d := NewDir("~/.ai-agent-cli/logs")
	assert.Equal(t, filepath.Join(home, ".ai-agent-cli", "logs"), d.Path())
}
