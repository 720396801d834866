package boltdb

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "nested", "state.db"), "")
	require.NoError(t, err)

	value, err := store.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, store.Put("auth-storage", []byte(`{"token":"t"}`)))
	value, err = store.Get("auth-storage")
	require.NoError(t, err)
	assert.Equal(t, `{"token":"t"}`, string(value))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	require.NoError(t, store.Delete("auth-storage"))
	require.NoError(t, store.Delete("auth-storage"))
	size, err = store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

// Two handles on one file stand in for a long-running watch and a one-off command.
func TestStoreSharedBetweenHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	watcher, err := OpenWithTimeout(path, "", time.Second)
	require.NoError(t, err)

	started := time.Now()
	command, err := OpenWithTimeout(path, "", time.Second)
	require.NoError(t, err)
	assert.Less(t, time.Since(started), 500*time.Millisecond)

	require.NoError(t, watcher.Put("notifications-cursor:1", []byte("7")))
	value, err := command.Get("notifications-cursor:1")
	require.NoError(t, err)
	assert.Equal(t, "7", string(value))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h := watcher
			if i%2 == 1 {
				h = command
			}
			assert.NoError(t, h.Put(fmt.Sprintf("key-%d", i), []byte("v")))
		}(i)
	}
	wg.Wait()

	size, err := command.Size()
	require.NoError(t, err)
	assert.Equal(t, 11, size)
	assert.NoError(t, watcher.Close())
	assert.NoError(t, command.Close())
}
