package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()
	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.json"))
	lastRun, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.True(t, lastRun.IsZero())
}

// TestFileRepository_SaveLoad_Roundtrip ensures Save followed by Load returns the same instant.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()
	file := filepath.Join(t.TempDir(), "state.json")
	repo := NewFileRepository(file)

	want := time.Date(2024, 5, 1, 18, 0, 0, 123_000_000, time.UTC)

	require.NoError(t, repo.Save(context.Background(), want))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.True(t, want.Equal(got))

	contents, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(contents), "2024-05-01T18:00:00.123Z")
}

// TestFileRepository_Errors covers corrupt files and zero times.
func TestFileRepository_Errors(t *testing.T) {
	t.Parallel()
	file := filepath.Join(t.TempDir(), "state.json")
	repo := NewFileRepository(file)

	require.Error(t, repo.Save(context.Background(), time.Time{}))

	require.NoError(t, os.WriteFile(file, []byte(`{"not":"a timestamp"}`), 0o600))

	_, err := repo.Load(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}
