package arena

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/holotrumps/pkg/logger"
)

// ErrCorruptState is returned when the state file cannot be decoded.
var ErrCorruptState = errors.New("corrupt state file")

// FileStore keeps State as indented JSON at a fixed path.
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore creates a store at path, or at DefaultStatePath when empty.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultStatePath()
	}
	return &FileStore{path: path, now: time.Now}
}

// Path returns the state file location.
func (f *FileStore) Path() string { return f.path }

// Load reads the state. A missing file yields a fresh state.
func (f *FileStore) Load(ctx context.Context) (*State, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Get().Debug(ctx, "no state file, starting fresh", logger.String("path", f.path))
		return NewState(f.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	st := &State{}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptState, f.path, err)
	}
	if st.Battles == nil {
		st.Battles = []Battle{}
	}
	if len(st.Battles) > MaxHistory {
		st.Battles = st.Battles[:MaxHistory]
	}
	return st, nil
}

// Save writes st through a temporary file so a crash never leaves a
// truncated state behind.
func (f *FileStore) Save(ctx context.Context, st *State) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, stateFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Chmod(filePermission); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace state: %w", err)
	}

	logger.Get().Debug(ctx, "state saved", logger.String("path", f.path), logger.Int("battles", len(st.Battles)))
	return nil
}

// Reset deletes the state file. A missing file is not an error.
func (f *FileStore) Reset(ctx context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove state: %w", err)
	}
	logger.Get().Info(ctx, "state cleared", logger.String("path", f.path))
	return nil
}
