package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/Pulsar1722/homeIoTServer/internal/config"
)

// Repository defines persistence operations for the last cleaning run.
type Repository interface {
	Load(ctx context.Context) (time.Time, error)
	Save(ctx context.Context, lastRun time.Time) error
}

// FileRepository persists the last cleaning run to a JSON file on disk.
// The file holds a single google.protobuf.Timestamp in its JSON form,
// e.g. "2024-05-01T18:00:00Z".
type FileRepository struct {
	// path is the filesystem location of the JSON state file.
	path string
	// mu protects concurrent access to the state file.
	mu sync.Mutex
}

var (
	// ErrNotFound is returned when the state file does not exist yet.
	ErrNotFound = errors.New("state not found")

	// errZeroTime is returned when saving a time that was never set.
	errZeroTime = errors.New("last run must not be zero")
)

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the location of the state file.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the last cleaning run from disk.
func (r *FileRepository) Load(_ context.Context) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return time.Time{}, ErrNotFound
		}

		return time.Time{}, fmt.Errorf("read state file: %w", err)
	}

	var ts timestamppb.Timestamp
	if err = protojson.Unmarshal(contents, &ts); err != nil {
		return time.Time{}, fmt.Errorf("decode state file: %w", err)
	}

	if err = ts.CheckValid(); err != nil {
		return time.Time{}, fmt.Errorf("decode state file: %w", err)
	}

	return ts.AsTime(), nil
}

// Save writes the last cleaning run to disk.
func (r *FileRepository) Save(_ context.Context, lastRun time.Time) error {
	if lastRun.IsZero() {
		return errZeroTime
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := protojson.Marshal(timestamppb.New(lastRun))
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}
