package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kladd/krpc-client/internal/schema"
)

func TestGetBeforeInsertFails(t *testing.T) {
	r := New()
	_, err := r.Get(1)
	require.Error(t, err)
}

func TestInsertThenGet(t *testing.T) {
	r := New()
	r.Insert(1, &schema.ProcedureResult{Value: []byte{0x2a}})

	got, err := r.Get(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x2a}, got.Value)
}

func TestInsertOverwritesLatest(t *testing.T) {
	r := New()
	r.Insert(1, &schema.ProcedureResult{Value: []byte{1}})
	r.Insert(1, &schema.ProcedureResult{Value: []byte{2}})

	got, err := r.Get(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, got.Value)
}

func TestWaitUnblocksOnInsert(t *testing.T) {
	r := New()
	r.Insert(1, &schema.ProcedureResult{Value: []byte{0}}) // ensure entry exists

	var wg sync.WaitGroup
	wg.Add(1)
	done := make(chan struct{})
	go func() {
		defer wg.Done()
		r.Wait(1)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	r.Insert(1, &schema.ProcedureResult{Value: []byte{9}})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not unblock after Insert")
	}
	wg.Wait()
}

func TestMonotonicSequenceObservedInOrder(t *testing.T) {
	r := New()
	pushes := [][]byte{{1}, {2}, {3}}

	go func() {
		for _, v := range pushes {
			time.Sleep(5 * time.Millisecond)
			r.Insert(42, &schema.ProcedureResult{Value: v})
		}
	}()

	var observed []byte
	last := byte(0)
	for i := 0; i < len(pushes); i++ {
		r.Wait(42)
		got, err := r.Get(42)
		require.NoError(t, err)
		v := got.Value[0]
		assert.GreaterOrEqual(t, v, last)
		last = v
		observed = append(observed, v)
	}
	assert.NotEmpty(t, observed)
}

func TestBreakAllUnblocksExistingWaiter(t *testing.T) {
	r := New()

	done := make(chan struct{})
	go func() {
		r.Wait(1)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	r.BreakAll()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not unblock after BreakAll")
	}
}

func TestWaitAfterBreakAllReturnsImmediately(t *testing.T) {
	r := New()
	r.BreakAll()

	done := make(chan struct{})
	go func() {
		r.Wait(99) // id never inserted and never waited on before BreakAll
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait on a fresh id blocked forever after BreakAll")
	}
}

func TestRemoveDropsEntry(t *testing.T) {
	r := New()
	r.Insert(1, &schema.ProcedureResult{Value: []byte{1}})
	require.True(t, r.Has(1))

	r.Remove(1)
	assert.False(t, r.Has(1))

	_, err := r.Get(1)
	require.Error(t, err)
}
