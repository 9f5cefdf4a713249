package metrics

import (
	"sync"
	"testing"
)

func TestRelay_Snapshot(t *testing.T) {
	var r Relay

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.EventsBroadcast.Add(1)
			r.Acknowledged.Add(1)
		}()
	}
	wg.Wait()

	r.ClientsConnected.Store(3)
	r.AckTimeouts.Add(2)

	got := r.Snapshot()
	want := RelaySnapshot{ClientsConnected: 3, EventsBroadcast: 10, Acknowledged: 10, AckTimeouts: 2}
	if got != want {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
}
