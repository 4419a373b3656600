package inmemorystore

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/protoswift/internal/label"
)

func TestSetAndGetStatus(t *testing.T) {
	s := New[int]()
	id := label.MustParse("//x:a")

	assert.Equal(t, StatusPending, s.GetStatus(id))

	s.SetStatus(id, StatusRunning)
	assert.Equal(t, StatusRunning, s.GetStatus(id))
	assert.Equal(t, "running", s.GetStatus(id).String())
}

func TestSetAndGetResult(t *testing.T) {
	s := New[string]()
	id := label.MustParse("//x:a")

	_, ok := s.GetResult(id)
	assert.False(t, ok)

	require.NoError(t, s.SetResult(id, "value"))
	v, ok := s.GetResult(id)
	require.True(t, ok)
	assert.Equal(t, "value", v)
	assert.Equal(t, StatusDone, s.GetStatus(id))

	err := s.SetResult(id, "again")
	assert.ErrorContains(t, err, "already recorded")
	v, _ = s.GetResult(id)
	assert.Equal(t, "value", v, "results are write-once")
}

func TestSetAndGetError(t *testing.T) {
	s := New[int]()
	id := label.MustParse("//x:a")

	assert.Nil(t, s.GetError(id))

	expectedErr := errors.New("a test error occurred")
	s.SetError(id, StatusFailed, expectedErr)
	assert.Equal(t, expectedErr, s.GetError(id))
	assert.Equal(t, StatusFailed, s.GetStatus(id))
}

// TestStore_ConcurrentAccess verifies that the store can be safely accessed by
// multiple goroutines simultaneously without data races or lost writes.
func TestStore_ConcurrentAccess(t *testing.T) {
	s := New[int]()
	numGoroutines := 100
	var wg sync.WaitGroup

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			id := label.New("concurrent", fmt.Sprintf("n%d", i))
			if err := s.SetResult(id, i); err != nil {
				t.Errorf("SetResult: %v", err)
			}
		}(i)
	}
	wg.Wait()

	results := s.Results()
	require.Len(t, results, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		id := label.New("concurrent", fmt.Sprintf("n%d", i))
		assert.Equal(t, i, results[id], "mismatched result for node %d", i)
		assert.Equal(t, StatusDone, s.GetStatus(id))
	}
}
