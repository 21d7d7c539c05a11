package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var got []string

	d.Subscribe(EventIssueCreated, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.IssueID)
		return errors.New("boom")
	})
	d.Subscribe(EventIssueCreated, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.IssueID)
		return nil
	})
	d.Subscribe(EventIssueAssigned, func(context.Context, Event) error {
		t.Fatal("unrelated handler invoked")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventIssueCreated, IssueID: "x"})
	require.Error(t, err)
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"first:x", "second:x"}, got)
}

func TestDispatcherWithoutSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventIssueCommentAdded}))
}
