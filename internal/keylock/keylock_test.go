package keylock

import (
	"sync"
	"testing"
)

func TestLocker_SerializesSameKey(t *testing.T) {
	l := New()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("user:1")
			defer unlock()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("counter = %d; want 50 (lost updates)", counter)
	}
	if n := l.Len(); n != 0 {
		t.Fatalf("entries not released: %d", n)
	}
}

func TestLocker_IndependentKeys(t *testing.T) {
	l := New()
	a := l.Lock("a")
	done := make(chan struct{})
	go func() {
		b := l.Lock("b")
		b()
		close(done)
	}()
	<-done
	a()
}

func TestLocker_UnlockTwiceIsNoop(t *testing.T) {
	var l Locker
	unlock := l.Lock("k")
	unlock()
	unlock()
	if l.Len() != 0 {
		t.Fatalf("expected no entries")
	}
}
