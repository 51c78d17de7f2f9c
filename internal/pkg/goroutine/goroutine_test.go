package goroutine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/mfacore/internal/pkg/goroutine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CollectsErrors(t *testing.T) {
	t.Parallel()

	m := goroutine.NewManager(4)
	boom := errors.New("publish failed")

	assert.True(t, m.Go(context.Background(), func(context.Context) error { return nil }))
	assert.True(t, m.Go(context.Background(), func(context.Context) error { return boom }))

	err := m.Wait()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int64(0), m.Running())
}

func TestManager_LimitAndClose(t *testing.T) {
	t.Parallel()

	m := goroutine.NewManager(1)
	release := make(chan struct{})
	started := make(chan struct{})

	require.True(t, m.Go(context.Background(), func(context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	assert.False(t, m.Go(context.Background(), func(context.Context) error { return nil }))
	assert.Equal(t, int64(1), m.Dropped())

	close(release)
	require.NoError(t, m.Wait())

	assert.False(t, m.Go(context.Background(), func(context.Context) error { return nil }))
	assert.Equal(t, int64(2), m.Dropped())
}

func TestManager_RecoversPanics(t *testing.T) {
	t.Parallel()

	m := goroutine.NewManager(2)
	require.True(t, m.Go(context.Background(), func(context.Context) error { panic("boom") }))
	require.NoError(t, m.Wait())
}

func TestManager_SkipsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := goroutine.NewManager(2)
	ran := false
	m.Go(ctx, func(context.Context) error { ran = true; return nil })
	require.NoError(t, m.Wait())
	assert.False(t, ran)
}
