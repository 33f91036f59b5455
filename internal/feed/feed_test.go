// Package feed tests for the change feed hub.
package feed

import (
	"sync"
	"testing"
)

func TestSubscribePublish(t *testing.T) {
	hub := NewHub()

	var got []Event
	unsubscribe := hub.Subscribe(CollectionItems, func(ev Event) {
		got = append(got, ev)
	})
	defer unsubscribe()

	hub.Publish(Event{Collection: CollectionItems, Type: EventCreate, ID: "a"})
	hub.Publish(Event{Collection: CollectionStock, Type: EventCreate, ID: "b"})

	if len(got) != 1 {
		t.Fatalf("received %d events, want 1 (stock event should not reach items subscriber)", len(got))
	}
	if got[0].ID != "a" || got[0].Type != EventCreate {
		t.Errorf("event = %+v, want create of a", got[0])
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()

	count := 0
	unsubscribe := hub.Subscribe(CollectionItems, func(Event) { count++ })

	hub.Publish(Event{Collection: CollectionItems, Type: EventCreate, ID: "a"})
	unsubscribe()
	hub.Publish(Event{Collection: CollectionItems, Type: EventUpdate, ID: "a"})

	if count != 1 {
		t.Errorf("count = %d, want 1 (no delivery after unsubscribe)", count)
	}
}

func TestUnsubscribeTwice(t *testing.T) {
	hub := NewHub()
	unsubscribe := hub.Subscribe(CollectionItems, func(Event) {})
	unsubscribe()
	unsubscribe() // must not panic or unsubscribe someone else
}

func TestMultipleSubscribers(t *testing.T) {
	hub := NewHub()

	a, b := 0, 0
	defer hub.Subscribe(CollectionItems, func(Event) { a++ })()
	defer hub.Subscribe(CollectionItems, func(Event) { b++ })()

	hub.Publish(Event{Collection: CollectionItems, Type: EventCreate, ID: "x"})

	if a != 1 || b != 1 {
		t.Errorf("a = %d, b = %d, want both 1", a, b)
	}
}

func TestPublishAfterClose(t *testing.T) {
	hub := NewHub()

	count := 0
	hub.Subscribe(CollectionItems, func(Event) { count++ })
	hub.Close()
	hub.Publish(Event{Collection: CollectionItems, Type: EventCreate, ID: "x"})

	if count != 0 {
		t.Errorf("count = %d, want 0 (closed hub drops events)", count)
	}
}

func TestConcurrentPublish(t *testing.T) {
	hub := NewHub()

	var mu sync.Mutex
	count := 0
	defer hub.Subscribe(CollectionItems, func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Publish(Event{Collection: CollectionItems, Type: EventCreate, ID: "x"})
		}()
	}
	wg.Wait()

	if count != 50 {
		t.Errorf("count = %d, want 50", count)
	}
}
