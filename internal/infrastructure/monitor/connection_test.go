package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeBackend struct {
	err   atomic.Value
	calls atomic.Int32
}

func (f *fakeBackend) Health(ctx context.Context) error {
	f.calls.Add(1)
	if err, ok := f.err.Load().(error); ok {
		return err
	}
	return nil
}

func TestRefreshRecordsBothProbes(t *testing.T) {
	backend := &fakeBackend{}
	m := New(backend, "bolt", func(context.Context) (int, error) { return 2, nil }, time.Minute, nil)

	assert.False(t, m.IsOnline())
	status := m.Refresh(context.Background())
	assert.True(t, status.Backend)
	assert.Empty(t, status.BackendError)
	assert.True(t, status.Storage)
	assert.Equal(t, 2, status.StorageSize)
	assert.Equal(t, "bolt", status.StorageName)
	assert.True(t, m.IsOnline())
	assert.Equal(t, status, m.GetStatus())
}

func TestRefreshReportsFailures(t *testing.T) {
	backend := &fakeBackend{}
	backend.err.Store(errors.New("connection refused"))
	m := New(backend, "redis", func(context.Context) (int, error) { return -1, errors.New("dial tcp") }, time.Minute, nil)

	status := m.Refresh(context.Background())
	assert.False(t, status.Backend)
	assert.Equal(t, "connection refused", status.BackendError)
	assert.False(t, status.Storage)
	assert.False(t, m.IsOnline())
}

func TestRefreshWithoutDependencies(t *testing.T) {
	m := New(nil, "memory", nil, 0, nil)
	status := m.Refresh(context.Background())
	assert.False(t, status.Backend)
	assert.Equal(t, errNoBackend.Error(), status.BackendError)
	assert.False(t, status.Storage)
}

func TestStartProbesImmediately(t *testing.T) {
	backend := &fakeBackend{}
	m := New(backend, "memory", nil, time.Hour, nil)
	m.Start()
	defer m.Stop()

	assert.Eventually(t, m.IsOnline, time.Second, 10*time.Millisecond)
	m.Stop()
	m.Stop()
	assert.Equal(t, int32(1), backend.calls.Load())
}
