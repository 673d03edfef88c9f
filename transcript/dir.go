package transcript

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	ai "github.com/spetersoncode/mcpagent"
)

// Dir stores transcripts as files in a directory.
type Dir struct {
	path string
	now  func() time.Time
	mu   sync.Mutex // serializes name allocation in Save
}

// NewDir returns a Dir rooted at path. A leading "~" is expanded to the
// user's home directory. The directory is created on the first Save.
func NewDir(path string) *Dir {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return &Dir{path: path, now: time.Now}
}

// Path returns the directory path.
func (d *Dir) Path() string { return d.path }

// Save writes messages to a new file and returns its name.
func (d *Dir) Save(ctx context.Context, messages []ai.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return "", fmt.Errorf("transcript: create dir: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	name, err := uniqueName(d.now(), func(name string) (bool, error) {
		_, err := os.Stat(filepath.Join(d.path, name))
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return err == nil, err
	})
	if err != nil {
		return "", fmt.Errorf("transcript: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(d.path, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("transcript: %w", err)
	}
	if err := Encode(f, messages); err != nil {
		f.Close()
		return "", fmt.Errorf("transcript: write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("transcript: write %s: %w", name, err)
	}
	return name, nil
}

// List returns the names of .jsonl files in the directory, newest first.
// A missing directory lists as empty.
func (d *Dir) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}

	names := []string{}
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), Extension) {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Load reads and decodes the named transcript.
func (d *Dir) Load(ctx context.Context, name string) ([]ai.Message, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(d.path, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("transcript: %w", err)
	}
	return Decode(data)
}

// Delete removes the named transcript.
func (d *Dir) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(d.path, name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("transcript: %w", err)
	}
	return nil
}

var _ Store = (*Dir)(nil)
