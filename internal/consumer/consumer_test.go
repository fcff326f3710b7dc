package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/austiecodes/curator/internal/config"
	"github.com/austiecodes/curator/internal/consts"
	"github.com/austiecodes/curator/internal/memory/retrieval"
)

type fakeRecorder struct {
	mu      sync.Mutex
	failFor int
	calls   int
	stored  []retrieval.ReviewInput
}

func (f *fakeRecorder) RecordReview(_ context.Context, in retrieval.ReviewInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failFor {
		return errors.New("store unavailable")
	}
	f.stored = append(f.stored, in)
	return nil
}

func (f *fakeRecorder) snapshot() (int, []retrieval.ReviewInput) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, append([]retrieval.ReviewInput(nil), f.stored...)
}

func msg(payload string) *message.Message {
	return message.NewMessage(watermill.NewUUID(), []byte(payload))
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"type":"REVIEW","userId":42,"contentId":"694","contentTitle":"The Shining","rating":9,"reviewText":"Terrifying."}`))
	require.NoError(t, err)

	in := ev.Review()
	assert.Equal(t, "42", in.UserID)
	assert.Equal(t, "The Shining", in.Title)
	assert.Equal(t, "Terrifying.", in.Text)
	require.NotNil(t, in.Rating)
	assert.Equal(t, 9.0, *in.Rating)
}

func TestParseEventDefaults(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"userId":"u1","contentId":550}`))
	require.NoError(t, err)

	in := ev.Review()
	assert.Equal(t, "MovieID_550", in.Title)
	assert.Equal(t, consts.DefaultReviewText, in.Text)
	assert.Nil(t, in.Rating)
}

func TestParseEventStringRating(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"userId":"u1","contentId":"550","rating":"7.5"}`))
	require.NoError(t, err)
	require.NotNil(t, ev.Review().Rating)
	assert.Equal(t, 7.5, *ev.Review().Rating)
}

func TestParseEventRejects(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not json", `{"userId":`},
		{"missing user", `{"contentId":"1"}`},
		{"empty user", `{"userId":"  ","contentId":"1"}`},
		{"missing content", `{"userId":"u1"}`},
		{"bad rating", `{"userId":"u1","contentId":"1","rating":"great"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseEvent([]byte(tc.payload))
			assert.ErrorIs(t, err, ErrInvalidEvent)
		})
	}
}

func TestHandleDiscardsInvalid(t *testing.T) {
	rec := &fakeRecorder{}
	h := NewHandler(rec)

	require.NoError(t, h.Handle(msg(`not json`)))
	require.NoError(t, h.Handle(msg(`{"contentId":"1"}`)))

	calls, _ := rec.snapshot()
	assert.Zero(t, calls)
}

func TestHandleReturnsStoreErrors(t *testing.T) {
	rec := &fakeRecorder{failFor: 1}
	h := NewHandler(rec)

	err := h.Handle(msg(`{"userId":"u1","contentId":"1"}`))
	require.Error(t, err)

	require.NoError(t, h.Handle(msg(`{"userId":"u1","contentId":"1"}`)))
	_, stored := rec.snapshot()
	require.Len(t, stored, 1)
	assert.Equal(t, "u1", stored[0].UserID)
}

func TestRouterRetriesFailedWrites(t *testing.T) {
	logger := watermill.NopLogger{}
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, logger)
	t.Cleanup(func() { pubSub.Close() })

	rec := &fakeRecorder{failFor: 1}
	c := New(config.NATSConfig{Subject: "user_activity_queue", MaxRetries: 2}, rec)
	c.logger = logger

	r, err := c.Router(pubSub)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = r.Run(ctx) }()

	select {
	case <-r.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}

	require.NoError(t, pubSub.Publish("user_activity_queue",
		msg(`{"userId":"u1","contentId":"694","contentTitle":"The Shining","rating":8}`),
		msg(`{"userId":"","contentId":"1"}`),
	))

	require.Eventually(t, func() bool {
		_, stored := rec.snapshot()
		return len(stored) == 1
	}, 5*time.Second, 20*time.Millisecond)

	calls, stored := rec.snapshot()
	assert.Equal(t, 2, calls)
	assert.Equal(t, "The Shining", stored[0].Title)
}
