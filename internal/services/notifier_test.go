package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawmate/backend/internal/models"
)

func TestNotifierFanOut(t *testing.T) {
	n := NewNotifier()

	ch1, cancel1 := n.Subscribe("pet-1")
	defer cancel1()
	ch2, cancel2 := n.Subscribe("pet-1")
	defer cancel2()
	other, cancelOther := n.Subscribe("pet-2")
	defer cancelOther()

	n.Publish("pet-1", models.Message{ID: "m1", PetID: "pet-1", Text: "hello"})

	for _, ch := range []<-chan MessageEvent{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, "m1", ev.Message.ID)
			assert.Equal(t, "pet-1", ev.PetID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}

	select {
	case <-other:
		t.Fatal("pet-2 subscriber received pet-1 event")
	default:
	}
}

func TestNotifierCancel(t *testing.T) {
	n := NewNotifier()

	ch, cancel := n.Subscribe("pet-1")
	cancel()

	_, open := <-ch
	require.False(t, open)

	// Cancel is idempotent and publishing after cancel is safe.
	cancel()
	n.Publish("pet-1", models.Message{ID: "m2"})
}

func TestNotifierDropsWhenSubscriberStalls(t *testing.T) {
	n := NewNotifier()

	ch, cancel := n.Subscribe("pet-1")
	defer cancel()

	// Overfill the buffer; Publish must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			n.Publish("pet-1", models.Message{ID: "m"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a stalled subscriber")
	}
	assert.NotEmpty(t, ch)
}
