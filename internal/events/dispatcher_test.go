package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryDispatcher_Publish(t *testing.T) {
	d := NewInMemoryDispatcher()

	var calls []string
	d.Subscribe(EventUserRegistered, func(context.Context, Event) error {
		calls = append(calls, "first")
		return nil
	})
	failure := errors.New("sink unavailable")
	d.Subscribe(EventUserRegistered, func(context.Context, Event) error {
		calls = append(calls, "second")
		return failure
	})
	d.Subscribe(EventUserLoggedIn, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "1", Type: EventUserRegistered})
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, []string{"first", "second"}, calls)

	assert.NoError(t, d.Publish(context.Background(), Event{ID: "2", Type: EventUserDeactivated}))
}

func TestInMemoryDispatcher_PublishRecoversPanics(t *testing.T) {
	d := NewInMemoryDispatcher()

	reached := false
	d.Subscribe(EventUserPasswordChanged, func(context.Context, Event) error {
		panic("audit sink exploded")
	})
	d.Subscribe(EventUserPasswordChanged, func(context.Context, Event) error {
		reached = true
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "3", Type: EventUserPasswordChanged})
	assert.ErrorContains(t, err, "audit sink exploded")
	assert.True(t, reached)
}
