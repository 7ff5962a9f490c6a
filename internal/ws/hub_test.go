package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go-inventory-ledger/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConn struct {
	mu     sync.Mutex
	msgs   [][]byte
	fail   bool
	closed bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.msgs = append(c.msgs, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}

func TestHubBroadcastsMovements(t *testing.T) {
	h := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	good := &fakeConn{}
	bad := &fakeConn{fail: true}
	h.Register <- good
	h.Register <- bad

	h.Publish(context.Background(), events.MovementEvent{Type: events.TypeStockUpdate, Quantity: 5})

	require.Eventually(t, func() bool { return good.received() == 1 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	var decoded events.MovementEvent
	require.NoError(t, json.Unmarshal(good.msgs[0], &decoded))
	assert.Equal(t, 5, decoded.Quantity)
	assert.True(t, bad.closed)
}

func TestHubPublishDoesNotBlock(t *testing.T) {
	h := NewHub(zap.NewNop())
	// No Run loop: the buffer fills and further events are dropped.
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(h.Broadcast)+10; i++ {
			h.Publish(context.Background(), events.MovementEvent{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full buffer")
	}
	assert.Len(t, h.Broadcast, cap(h.Broadcast))
}

func TestHubClosesClientsOnShutdown(t *testing.T) {
	h := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() { h.Run(ctx); close(stopped) }()

	c := &fakeConn{}
	h.Register <- c
	cancel()
	<-stopped

	assert.True(t, c.closed)
	assert.Equal(t, 0, h.ClientCount())
}

func TestHubJoinAndLeaveAfterShutdown(t *testing.T) {
	h := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() { h.Run(ctx); close(stopped) }()

	open := &fakeConn{}
	require.True(t, h.Join(open))
	cancel()
	<-stopped

	late := &fakeConn{}
	returned := make(chan bool)
	go func() {
		h.Leave(open)
		returned <- h.Join(late)
	}()

	select {
	case joined := <-returned:
		assert.False(t, joined)
	case <-time.After(time.Second):
		t.Fatal("Join or Leave blocked after the hub stopped")
	}
	assert.True(t, open.closed)
	assert.True(t, late.closed)
}
