package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryDispatcher_PublishesToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []string
	d.Subscribe(EventLoginSucceeded, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.UserID)
		return nil
	})
	d.Subscribe(EventLoginSucceeded, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.UserID)
		return nil
	})
	d.Subscribe(EventLoginFailed, func(_ context.Context, _ Event) error {
		got = append(got, "unexpected")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventLoginSucceeded, UserID: "u1"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"first:u1", "second:u1"}, got)
}

func TestInMemoryDispatcher_HandlerErrorsDoNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	called := false
	d.Subscribe(EventUserRegistered, func(context.Context, Event) error { return boom })
	d.Subscribe(EventUserRegistered, func(context.Context, Event) error {
		called = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventUserRegistered})
	assert.ErrorIs(t, err, boom)
	assert.True(t, called)
}

func TestInMemoryDispatcher_NoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventPasswordResetRequested}))
}
