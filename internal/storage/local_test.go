package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_StoreGetDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	l, err := NewLocal(root, nil)
	require.NoError(t, err)

	loc, err := l.Store(ctx, strings.NewReader("# 标题\n"), "runs/abc/paper_translated.md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "runs", "abc", "paper_translated.md"), loc)

	rc, err := l.Get(ctx, "runs/abc/paper_translated.md")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "# 标题\n", string(data))

	require.NoError(t, l.Delete(ctx, "runs/abc/paper_translated.md"))
	_, err = l.Get(ctx, "runs/abc/paper_translated.md")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, l.Delete(ctx, "runs/abc/paper_translated.md"), ErrNotFound)
}

func TestLocal_KeysStayUnderRoot(t *testing.T) {
	root := t.TempDir()
	l, err := NewLocal(filepath.Join(root, "store"), nil)
	require.NoError(t, err)

	loc, err := l.Store(context.Background(), strings.NewReader("x"), "../../escape.md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "store", "escape.md"), loc)

	_, err = l.Store(context.Background(), strings.NewReader("x"), "/")
	assert.Error(t, err)
}

func TestLocal_CleanupBefore(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir(), nil)
	require.NoError(t, err)

	oldPath, err := l.Store(ctx, strings.NewReader("old"), "old.md")
	require.NoError(t, err)
	_, err = l.Store(ctx, strings.NewReader("new"), "new.md")
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	require.NoError(t, l.CleanupBefore(ctx, time.Now().Add(-time.Hour)))

	_, err = l.Get(ctx, "old.md")
	assert.ErrorIs(t, err, ErrNotFound)
	rc, err := l.Get(ctx, "new.md")
	require.NoError(t, err)
	rc.Close()
}
