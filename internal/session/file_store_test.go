package session

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/kavach/internal/errors"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path, "hunter2")

	_, ok, err := store.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok, "missing file reads as empty")

	require.NoError(t, store.Set(ctx, KeyToken, "secret-token"))
	require.NoError(t, store.Set(ctx, KeyCategory, "employee"))

	// a second store on the same file sees the writes
	other := NewFileStore(path, "hunter2")
	v, ok, err := other.Get(ctx, KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "secret-token", v)

	require.NoError(t, other.Delete(ctx, KeyToken, "never-set"))
	_, ok, err = store.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err = store.Get(ctx, KeyCategory)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "employee", v)
}

func TestFileStoreEncryptsAtRest(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path, "pass")

	require.NoError(t, store.Set(ctx, KeyToken, "plain-token-value"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "plain-token-value"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreWrongPassphrase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	require.NoError(t, NewFileStore(path, "right").Set(ctx, KeyToken, "tok"))

	_, _, err := NewFileStore(path, "wrong").Get(ctx, KeyToken)
	require.Error(t, err)

	var kerr *errors.KavachError
	require.True(t, stderrors.As(err, &kerr))
	assert.Equal(t, errors.ErrCodeStoreDecrypt, kerr.Code)
}

func TestFileStoreCorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{garbage"), 0o600))

	store := NewFileStore(path, "x")
	_, _, err := store.Get(ctx, KeyToken)
	assert.Error(t, err)

	// the manager treats an unreadable store as anonymous
	m := NewManager(store, &Recorder{})
	assert.False(t, m.IsAuthenticated(ctx))
}

func TestFileStoreDeleteWithoutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, NewFileStore(path, "x").Delete(context.Background(), KeyToken))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no-op delete must not create the file")
}
