package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []Message
	err  error
}

func (r *recordingSender) Send(ctx context.Context, m Message) (uint32, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.sent = append(r.sent, m)
	return uint32(len(r.sent)), nil
}

func TestNotify_RateLimited(t *testing.T) {
	s := &recordingSender{}
	n := New(s, nil)

	clock := time.Unix(1000, 0)
	n.now = func() time.Time { return clock }

	ctx := context.Background()
	assert.True(t, n.Applied(ctx, "gtk-theme", "Arc"))
	assert.False(t, n.Applied(ctx, "gtk-theme", "Arc-Dark"))

	// Different key is not limited
	assert.True(t, n.Applied(ctx, "wallpaper", "/a.png"))

	clock = clock.Add(6 * time.Second)
	assert.True(t, n.Applied(ctx, "gtk-theme", "Arc-Dark"))

	require.Len(t, s.sent, 3)
	assert.Equal(t, "loom", s.sent[0].AppName)
	assert.Equal(t, "gtk-theme: Arc", s.sent[0].Body)
	assert.Equal(t, byte(0), s.sent[0].Hints["urgency"].Value())
}

func TestNotify_DisabledOrNoSender(t *testing.T) {
	s := &recordingSender{}
	n := New(s, nil)
	n.SetEnabled(false)
	assert.False(t, n.Applied(context.Background(), "x", "y"))
	assert.Empty(t, s.sent)

	assert.False(t, New(nil, nil).Applied(context.Background(), "x", "y"))
}

func TestNotify_SendError(t *testing.T) {
	n := New(&recordingSender{err: errors.New("no server")}, nil)
	assert.False(t, n.Failed(context.Background(), "gtk-theme", errors.New("boom")))
}

func TestSetMinInterval(t *testing.T) {
	s := &recordingSender{}
	n := New(s, nil)
	n.SetMinInterval(0)

	ctx := context.Background()
	assert.True(t, n.Notify(ctx, "k", "a", "", LevelError))
	assert.True(t, n.Notify(ctx, "k", "b", "", LevelError))
	assert.Equal(t, byte(2), s.sent[1].Hints["urgency"].Value())
	assert.Equal(t, "dialog-error", s.sent[1].AppIcon)
}
