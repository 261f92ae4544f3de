package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus(t *testing.T) {
	t.Run("delivers to subscribers of the topic", func(t *testing.T) {
		bus := NewBus()
		var got []Event
		bus.Subscribe(TopicVoucherIssued, func(e Event) { got = append(got, e) })

		bus.Publish(TopicVoucherIssued, "ATV-1")
		bus.Publish(TopicVoucherIssued, "ATV-2")

		require.Len(t, got, 2)
		assert.Equal(t, TopicVoucherIssued, got[0].Topic)
		assert.Equal(t, "ATV-1", got[0].Payload)
		assert.Equal(t, "ATV-2", got[1].Payload)
	})

	t.Run("topics are isolated", func(t *testing.T) {
		bus := NewBus()
		issued := 0
		deleted := 0
		bus.Subscribe(TopicVoucherIssued, func(Event) { issued++ })
		bus.Subscribe(TopicVoucherDeleted, func(Event) { deleted++ })

		bus.Publish(TopicVoucherIssued, nil)
		bus.Publish(TopicPricebookChanged, nil)

		assert.Equal(t, 1, issued)
		assert.Equal(t, 0, deleted)
	})

	t.Run("unsubscribe stops delivery and is idempotent", func(t *testing.T) {
		bus := NewBus()
		calls := 0
		unsub := bus.Subscribe(TopicPricebookChanged, func(Event) { calls++ })

		bus.Publish(TopicPricebookChanged, nil)
		unsub()
		unsub()
		bus.Publish(TopicPricebookChanged, nil)

		assert.Equal(t, 1, calls)
	})

	t.Run("multiple subscribers fire in subscription order", func(t *testing.T) {
		bus := NewBus()
		var order []string
		bus.Subscribe(TopicVoucherIssued, func(Event) { order = append(order, "first") })
		bus.Subscribe(TopicVoucherIssued, func(Event) { order = append(order, "second") })

		bus.Publish(TopicVoucherIssued, nil)

		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("publish with no subscribers is a no-op", func(t *testing.T) {
		bus := NewBus()
		assert.NotPanics(t, func() { bus.Publish("nobody.listens", 42) })
	})
}
