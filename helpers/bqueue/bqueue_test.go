package bqueue

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFO(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	for _, n := range []int{0, 1, 2, 63, 64, 65, 129, 1000} {
		q := New[int]()
		input := make([]int, n)
		for i := range input {
			input[i] = rnd.Int()
			require.True(t, q.Push(input[i]))
		}
		assert.Equal(t, n, q.Len())
		output := make([]int, 0, n)
		for !q.IsEmpty() {
			x, ok := q.TryPop()
			require.True(t, ok)
			output = append(output, x)
		}
		assert.Equal(t, input, output, "n=%d", n)
		_, ok := q.TryPop()
		assert.False(t, ok)
	}
}

func TestInterleaved(t *testing.T) {
	t.Parallel()

	// push/pop interleaving exercises compaction path
	q := New[int]()
	next, expect := 0, 0
	for round := 0; round < 50; round++ {
		for i := 0; i < 7; i++ {
			q.Push(next)
			next++
		}
		for i := 0; i < 5; i++ {
			x, ok := q.TryPop()
			require.True(t, ok)
			require.Equal(t, expect, x)
			expect++
		}
	}
	rest := q.Drain()
	require.Len(t, rest, next-expect)
	for _, x := range rest {
		require.Equal(t, expect, x)
		expect++
	}
	assert.True(t, q.IsEmpty())
	assert.Nil(t, q.Drain())
}

func TestPopBlocksUntilPush(t *testing.T) {
	t.Parallel()

	q := New[string]()
	result := make(chan string, 1)
	go func() {
		s, ok := q.Pop()
		assert.True(t, ok)
		result <- s
	}()
	select {
	case s := <-result:
		t.Fatalf("Pop returned before Push s=%s", s)
	case <-time.After(20 * time.Millisecond):
	}
	q.Push("hello")
	select {
	case s := <-result:
		assert.Equal(t, "hello", s)
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake up after Push")
	}
}

func TestShutdownWakesWaiters(t *testing.T) {
	t.Parallel()

	q := New[int]()
	const waiters = 4
	done := make(chan bool, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			_, ok := q.Pop()
			done <- ok
		}()
	}
	time.Sleep(10 * time.Millisecond)
	q.Shutdown()
	q.Shutdown() // idempotent
	for i := 0; i < waiters; i++ {
		select {
		case ok := <-done:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("Pop blocked after Shutdown")
		}
	}
	assert.True(t, q.IsShutdown())
	assert.False(t, q.Push(1))
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestShutdownDeliversPending(t *testing.T) {
	t.Parallel()

	q := New[int]()
	q.Push(1)
	q.Push(2)
	q.Shutdown()
	x, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, 1, x)
	x, err := q.PopContext(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, x)
	_, err = q.PopContext(context.Background())
	assert.Equal(t, ErrShutdown, err)
}

func TestPopContextCancel(t *testing.T) {
	t.Parallel()

	q := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	begin := time.Now()
	_, err := q.PopContext(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)
	assert.True(t, time.Since(begin) < time.Second)

	q.Push(5)
	x, err := q.PopContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, x)
}

func TestConcurrentProducersNoLoss(t *testing.T) {
	t.Parallel()

	q := New[int]()
	const producers = 4
	const perProducer = 1000
	wg := sync.WaitGroup{}
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(base + i)
			}
		}(p * perProducer)
	}
	go func() {
		wg.Wait()
		q.Shutdown()
	}()

	seen := make(map[int]bool, producers*perProducer)
	last := make(map[int]int, producers)
	for {
		x, ok := q.Pop()
		if !ok {
			break
		}
		require.False(t, seen[x], "duplicate item=%d", x)
		seen[x] = true
		// per producer order preserved
		p := x / perProducer
		if prev, ok := last[p]; ok {
			require.Less(t, prev, x)
		}
		last[p] = x
	}
	assert.Len(t, seen, producers*perProducer)
}
