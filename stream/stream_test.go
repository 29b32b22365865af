package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vib3/vcb/cmdbuf"
)

func newTestHub(t *testing.T, opts ...HubOption) (*Hub, string) {
	t.Helper()
	hub := NewHub(opts...)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		_ = hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, hub *Hub, url string, want int) *Subscriber {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sub, err := Dial(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })
	require.Eventually(t, func() bool { return hub.Clients() == want },
		2*time.Second, 10*time.Millisecond, "client never registered")
	return sub
}

func frame(t *testing.T, pipeline string) *cmdbuf.Buffer {
	t.Helper()
	return cmdbuf.NewBuilder().
		ClearColor(0, 0, 0, 1).
		Pipeline(pipeline).
		Draw(3).
		MustBuild()
}

func TestPublishReachesSubscribers(t *testing.T) {
	hub, url := newTestHub(t)
	a := dial(t, hub, url, 1)
	b := dial(t, hub, url, 2)

	n, err := hub.Publish(frame(t, "main"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, sub := range []*Subscriber{a, b} {
		got, err := sub.Next()
		require.NoError(t, err)
		assert.Equal(t, 3, got.Len())
		assert.True(t, got.Sealed())
		cmd, ok := got.Command(1)
		require.True(t, ok)
		pc, ok := cmd.Data.(cmdbuf.PipelineCommand)
		require.True(t, ok)
		assert.Equal(t, "main", pc.PipelineID)
	}
	assert.Equal(t, uint64(1), hub.Stats().Published)
}

func TestPublishRejectsUnsealed(t *testing.T) {
	hub, _ := newTestHub(t)
	buf := cmdbuf.New()
	require.NoError(t, buf.Clear(cmdbuf.ClearCommand{}))

	_, err := hub.Publish(buf)
	assert.ErrorIs(t, err, ErrUnsealed)
	_, err = hub.Publish(nil)
	assert.ErrorIs(t, err, ErrUnsealed)
}

func TestPublishFrameChecksHeader(t *testing.T) {
	hub, _ := newTestHub(t)
	_, err := hub.PublishFrame([]byte("not a frame"))
	assert.ErrorIs(t, err, cmdbuf.ErrFormat)
}

func TestLateSubscriberGetsLastFrame(t *testing.T) {
	hub, url := newTestHub(t)
	_, err := hub.Publish(frame(t, "first"))
	require.NoError(t, err)
	_, err = hub.Publish(frame(t, "second"))
	require.NoError(t, err)

	sub := dial(t, hub, url, 1)
	data, err := sub.NextFrame()
	require.NoError(t, err)
	info, err := cmdbuf.Peek(data)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Commands)
	assert.True(t, info.Sealed)

	got, err := cmdbuf.FromBinary(data)
	require.NoError(t, err)
	cmd, _ := got.Command(1)
	assert.Equal(t, cmdbuf.PipelineCommand{PipelineID: "second"}, cmd.Data)
}

func TestCloseDisconnectsSubscribers(t *testing.T) {
	hub, url := newTestHub(t)
	sub := dial(t, hub, url, 1)

	require.NoError(t, hub.Close())
	_, err := sub.Next()
	assert.Error(t, err)

	_, err = hub.Publish(frame(t, "main"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, hub.Clients())
}

func TestSubscriberDisconnectUnregisters(t *testing.T) {
	hub, url := newTestHub(t)
	sub := dial(t, hub, url, 1)
	require.NoError(t, sub.Close())
	assert.Eventually(t, func() bool { return hub.Clients() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Dial(ctx, "ws://127.0.0.1:1/none")
	assert.Error(t, err)
}
