package util

import (
	"sync"
	"testing"
)

func TestMPSCDeliversAll(t *testing.T) {
	q := NewMPSC[int]()

	const producers = 8
	const perProducer = 1000

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				v := i
				if !q.Push(&v) {
					t.Errorf("Push failed on an open queue")
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		q.Close()
	}()

	count := 0
	for range q.Recv() {
		count++
	}
	if count != producers*perProducer {
		t.Errorf("Expected %d items, got %d", producers*perProducer, count)
	}
}

func TestMPSCCloseIsGraceful(t *testing.T) {
	q := NewMPSC[int]()

	for i := 0; i < 100; i++ {
		v := i
		q.Push(&v)
	}
	q.Close()

	// items queued before Close are still delivered, in order
	want := 0
	for item := range q.Recv() {
		if *item != want {
			t.Fatalf("Expected %d, got %d", want, *item)
		}
		want++
	}
	if want != 100 {
		t.Errorf("Expected 100 items, got %d", want)
	}
}

func TestMPSCRejectsAfterClose(t *testing.T) {
	q := NewMPSC[int]()
	q.Close()

	v := 1
	if q.Push(&v) {
		t.Errorf("Push after Close must fail")
	}
	if q.Push(nil) {
		t.Errorf("Pushing nil must fail")
	}
}
