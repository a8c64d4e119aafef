package flows

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenty/agenty-backend/internal/ai/flowerr"
)

func TestSequencerCancelsOlderCall(t *testing.T) {
	s := NewSequencer(time.Minute)

	ctx1, done1, err := s.Begin(context.Background(), "k", 1)
	require.NoError(t, err)
	defer done1()

	ctx2, done2, err := s.Begin(context.Background(), "k", 2)
	require.NoError(t, err)
	defer done2()

	<-ctx1.Done()
	assert.ErrorIs(t, context.Cause(ctx1), flowerr.ErrSuperseded)
	assert.NoError(t, ctx2.Err())
	assert.False(t, s.Current("k", 1))
	assert.True(t, s.Current("k", 2))
}

func TestSequencerRejectsStaleSeq(t *testing.T) {
	s := NewSequencer(time.Minute)
	_, done, err := s.Begin(context.Background(), "k", 5)
	require.NoError(t, err)
	done()

	_, _, err = s.Begin(context.Background(), "k", 3)
	assert.ErrorIs(t, err, flowerr.ErrSuperseded)
}

func TestSequencerKeysAreIndependent(t *testing.T) {
	s := NewSequencer(time.Minute)
	ctxA, doneA, err := s.Begin(context.Background(), "a", 1)
	require.NoError(t, err)
	defer doneA()
	_, doneB, err := s.Begin(context.Background(), "b", 9)
	require.NoError(t, err)
	defer doneB()

	assert.NoError(t, ctxA.Err())
}

func TestSequencerEmptyKeyPassesThrough(t *testing.T) {
	s := NewSequencer(time.Minute)
	ctx := context.Background()
	got, done, err := s.Begin(ctx, "", 0)
	require.NoError(t, err)
	done()
	assert.Equal(t, ctx, got)
	assert.True(t, s.Current("", 42))
}

func TestSequencerForgetsIdleKeys(t *testing.T) {
	s := NewSequencer(200 * time.Millisecond)
	for i := 0; i < 100; i++ {
		_, done, err := s.Begin(context.Background(), fmt.Sprintf("session-%d", i), 1)
		require.NoError(t, err)
		done()
	}
	assert.Equal(t, 100, s.Len())

	assert.Eventually(t, func() bool { return s.Len() == 0 }, 2*time.Second, 20*time.Millisecond)

	// A forgotten key starts fresh.
	_, done, err := s.Begin(context.Background(), "session-0", 0)
	require.NoError(t, err)
	done()
}

func TestSequencerKeepsInFlightKeys(t *testing.T) {
	s := NewSequencer(10 * time.Millisecond)
	ctx1, done1, err := s.Begin(context.Background(), "k", 5)
	require.NoError(t, err)
	defer done1()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, s.Len())

	_, _, err = s.Begin(context.Background(), "k", 3)
	assert.ErrorIs(t, err, flowerr.ErrSuperseded)
	assert.NoError(t, ctx1.Err())
}
