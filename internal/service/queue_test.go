package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := newQueue()

	for i := 0; i < 5; i++ {
		require.True(t, q.enqueue(i))
	}

	assert.Equal(t, 5, q.len())

	for i := 0; i < 5; i++ {
		item, ok := q.dequeue()
		require.True(t, ok)
		assert.Equal(t, i, item)
	}
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := newQueue()

	require.True(t, q.enqueue("a"))
	q.close()

	assert.False(t, q.enqueue("b"))

	// Items enqueued before close stay drainable.
	item, ok := q.dequeue()
	require.True(t, ok)
	assert.Equal(t, "a", item)

	_, ok = q.dequeue()
	assert.False(t, ok)
}

func TestQueueDequeueBlocksUntilEnqueue(t *testing.T) {
	q := newQueue()

	got := make(chan any, 1)

	go func() {
		item, ok := q.dequeue()
		assert.True(t, ok)
		got <- item
	}()

	// Give the consumer a moment to park in dequeue.
	time.Sleep(10 * time.Millisecond)

	require.True(t, q.enqueue("wake"))

	select {
	case item := <-got:
		assert.Equal(t, "wake", item)
	case <-time.After(time.Second):
		t.Fatal("dequeue did not wake up after enqueue")
	}
}

func TestQueueCloseWakesBlockedConsumer(t *testing.T) {
	q := newQueue()

	done := make(chan struct{})

	go func() {
		defer close(done)

		_, ok := q.dequeue()
		assert.False(t, ok)
	}()

	time.Sleep(10 * time.Millisecond)
	q.close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dequeue did not return after close")
	}
}

func TestQueueManyProducersSingleConsumer(t *testing.T) {
	q := newQueue()

	const (
		producers        = 8
		itemsPerProducer = 50
	)

	var wg sync.WaitGroup

	for p := 0; p < producers; p++ {
		wg.Add(1)

		go func(p int) {
			defer wg.Done()

			for i := 0; i < itemsPerProducer; i++ {
				q.enqueue(p)
			}
		}(p)
	}

	go func() {
		wg.Wait()
		q.close()
	}()

	counts := make(map[int]int)

	for {
		item, ok := q.dequeue()
		if !ok {
			break
		}

		counts[item.(int)]++
	}

	for p := 0; p < producers; p++ {
		assert.Equal(t, itemsPerProducer, counts[p], "producer %d items lost or duplicated", p)
	}
}

func TestFutureSingleResolution(t *testing.T) {
	f := newFuture[int]()

	f.resolve(42)
	f.fault(errors.New("ignored")) // second outcome is dropped

	value, err := f.wait()
	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestFutureFault(t *testing.T) {
	f := newFuture[string]()

	sentinel := errors.New("boom")
	f.fault(sentinel)
	f.resolve("ignored")

	_, err := f.wait()
	assert.ErrorIs(t, err, sentinel)
}
