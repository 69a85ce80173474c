package bridge

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandQueue_FIFO(t *testing.T) {
	q := NewCommandQueue()

	_, ok := q.TryPop()
	assert.False(t, ok, "empty queue must not pop")

	for i := 0; i < 100; i++ {
		q.Push(Connect{Name: fmt.Sprintf("dev-%d", i)})
	}
	assert.Equal(t, 100, q.Len())

	for i := 0; i < 100; i++ {
		cmd, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, Connect{Name: fmt.Sprintf("dev-%d", i)}, cmd)
	}
	assert.Equal(t, 0, q.Len())
}

func TestCommandQueue_ReadySignalsPush(t *testing.T) {
	q := NewCommandQueue()

	select {
	case <-q.Ready():
		t.Fatal("ready fired before any push")
	default:
	}

	q.Push(Scan{})
	q.Push(Scan{})

	select {
	case <-q.Ready():
	default:
		t.Fatal("ready did not fire after push")
	}
}

func TestCommandQueue_ConcurrentProducersKeepPerProducerOrder(t *testing.T) {
	q := NewCommandQueue()

	const producers, perProducer = 4, 250
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(Connect{Name: fmt.Sprintf("%d:%d", p, i)})
			}
		}(p)
	}
	wg.Wait()

	next := make([]int, producers)
	for {
		cmd, ok := q.TryPop()
		if !ok {
			break
		}
		var p, i int
		_, err := fmt.Sscanf(cmd.(Connect).Name, "%d:%d", &p, &i)
		require.NoError(t, err)
		assert.Equal(t, next[p], i, "producer %d out of order", p)
		next[p]++
	}
	for p := range next {
		assert.Equal(t, perProducer, next[p])
	}
}

func TestMessageQueue_DropOldest(t *testing.T) {
	q := NewMessageQueue(20)

	evictions := 0
	for i := 0; i < 25; i++ {
		if q.Push(Info{Text: fmt.Sprint(i)}) {
			evictions++
		}
	}
	assert.Equal(t, 5, evictions)
	assert.Equal(t, int64(5), q.Dropped())
	assert.Equal(t, 20, q.Len())
	assert.Equal(t, 20, q.Cap())

	msgs := q.DrainAll()
	require.Len(t, msgs, 20)
	for i, m := range msgs {
		assert.Equal(t, Info{Text: fmt.Sprint(i + 5)}, m)
	}
	assert.Empty(t, q.DrainAll())
}

func TestMessageQueue_DrainPreservesOrder(t *testing.T) {
	q := NewMessageQueue(8)
	q.Push(ScanResult{Names: []string{"A"}})
	q.Push(Info{Text: "scan complete, found 1 devices"})
	q.Push(Sent{Payload: []byte("x")})

	assert.Equal(t, []Message{
		ScanResult{Names: []string{"A"}},
		Info{Text: "scan complete, found 1 devices"},
		Sent{Payload: []byte("x")},
	}, q.DrainAll())
}

func TestMessageQueue_InvalidCapacity(t *testing.T) {
	assert.Panics(t, func() { NewMessageQueue(0) })
}
