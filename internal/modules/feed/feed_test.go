package feed

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHubBroadcastReachesAllSubscribers(t *testing.T) {
	t.Parallel()

	h := NewHub(nil)
	ch1, cancel1 := h.Subscribe()
	defer cancel1()
	ch2, cancel2 := h.Subscribe()
	defer cancel2()

	payload, err := json.Marshal(Event{MissionID: "m-1", Statut: "accepted", Action: "claimed", At: time.Now().UTC()})
	if err != nil {
		t.Fatal(err)
	}
	h.broadcast(payload)

	for i, ch := range []<-chan []byte{ch1, ch2} {
		select {
		case got := <-ch:
			var ev Event
			if err := json.Unmarshal(got, &ev); err != nil {
				t.Fatalf("subscriber %d: bad payload: %v", i, err)
			}
			if ev.MissionID != "m-1" || ev.Action != "claimed" {
				t.Errorf("subscriber %d: event = %+v", i, ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d never received the event", i)
		}
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	h := NewHub(nil)
	ch, cancel := h.Subscribe()
	cancel()

	h.broadcast([]byte(`{}`))

	select {
	case <-ch:
		t.Fatal("unsubscribed channel still received an event")
	default:
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	t.Parallel()

	h := NewHub(nil)
	ch, cancel := h.Subscribe()
	defer cancel()

	// Fill the buffer and then some; the overflow must be dropped, not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 40; i++ {
			h.broadcast([]byte(`{}`))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}

	if len(ch) != cap(ch) {
		t.Errorf("buffered = %d, want full buffer of %d", len(ch), cap(ch))
	}
}
