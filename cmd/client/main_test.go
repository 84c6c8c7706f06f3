package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/projectdesk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowWatcher blocks until its context is done, then takes a while to
// return, like a stream delivering a final event during shutdown.
type slowWatcher struct {
	started  chan struct{}
	finished atomic.Bool
}

func (w *slowWatcher) Watch(ctx context.Context) error {
	close(w.started)
	<-ctx.Done()
	time.Sleep(50 * time.Millisecond)
	w.finished.Store(true)
	return ctx.Err()
}

func TestStartWatch_StopWaitsForWatcher(t *testing.T) {
	w := &slowWatcher{started: make(chan struct{})}
	stop := startWatch(context.Background(), w, logging.Nop())

	select {
	case <-w.started:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never started")
	}
	require.False(t, w.finished.Load())

	stop()
	assert.True(t, w.finished.Load())
}

func TestStartWatch_StopsWithParentContext(t *testing.T) {
	w := &slowWatcher{started: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	stop := startWatch(ctx, w, logging.Nop())
	<-w.started

	cancel()
	stop()
	assert.True(t, w.finished.Load())
}
