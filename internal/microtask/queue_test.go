package microtask

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeferRunsInOrder(t *testing.T) {
	q := New()
	defer q.Close()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 5; i++ {
		i := i
		q.Defer(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		})
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("deferred functions did not all run")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestCloseDrainsPendingWork(t *testing.T) {
	q := New()

	ran := make(chan struct{})
	q.Defer(func() { close(ran) })
	q.Close()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("deferred function never ran before the queue drained")
	}
}
