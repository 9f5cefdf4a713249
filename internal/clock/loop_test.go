package clock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	loop := NewLoop(16, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(cancel)
	return loop, cancel
}

func TestLoop_CallRunsOnLoop(t *testing.T) {
	loop, _ := startLoop(t)

	counter := 0
	for i := 0; i < 100; i++ {
		if err := loop.Call(context.Background(), func() { counter++ }); err != nil {
			t.Fatalf("Call failed: %v", err)
		}
	}
	if counter != 100 {
		t.Errorf("counter = %d, want 100", counter)
	}
}

func TestLoop_AfterFunc(t *testing.T) {
	loop, _ := startLoop(t)

	fired := make(chan struct{})
	loop.AfterFunc(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestLoop_StopSuppressesCallback(t *testing.T) {
	loop, _ := startLoop(t)

	var fired atomic.Bool
	var timer Timer
	loop.Call(context.Background(), func() {
		timer = loop.AfterFunc(20*time.Millisecond, func() { fired.Store(true) })
	})
	loop.Call(context.Background(), func() {
		if !timer.Stop() {
			t.Error("Stop() = false for pending timer")
		}
	})

	time.Sleep(60 * time.Millisecond)
	if fired.Load() {
		t.Error("stopped timer fired")
	}
}

func TestLoop_Every(t *testing.T) {
	loop, _ := startLoop(t)

	var ticks atomic.Int32
	timer := loop.Every(5*time.Millisecond, func() { ticks.Add(1) })
	time.Sleep(40 * time.Millisecond)
	timer.Stop()

	if ticks.Load() < 2 {
		t.Errorf("ticks = %d, want >= 2", ticks.Load())
	}
}

func TestLoop_PostAfterStop(t *testing.T) {
	loop, cancel := startLoop(t)
	cancel()
	<-loop.Done()

	if loop.Post(func() {}) {
		t.Error("Post() = true after loop stopped")
	}
	if err := loop.Call(context.Background(), func() {}); err != ErrLoopStopped {
		t.Errorf("Call() error = %v, want ErrLoopStopped", err)
	}
}
