package sheetexport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain[T any](t *testing.T, src RecordSource[T]) []T {
	t.Helper()
	var out []T
	for {
		v, ok, err := src.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func TestFromSlice(t *testing.T) {
	src := FromSlice([]int{1, 2, 3})
	require.NotNil(t, src.EstimatedSize())
	assert.Equal(t, int64(3), *src.EstimatedSize())
	assert.Equal(t, []int{1, 2, 3}, drain[int](t, src))
}

func TestFromChannel(t *testing.T) {
	ch := make(chan string, 2)
	ch <- "a"
	ch <- "b"
	close(ch)

	src := FromChannel[string](ch, nil)
	assert.Nil(t, src.EstimatedSize())
	assert.Equal(t, []string{"a", "b"}, drain[string](t, src))
}

func TestFromChannel_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := FromChannel[int](make(chan int), nil).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromIterator_StopsAfterExhaustion(t *testing.T) {
	calls := 0
	src := FromIterator(func(ctx context.Context) (int, bool, error) {
		calls++
		if calls > 2 {
			return 0, false, nil
		}
		return calls, true, nil
	}, nil)

	assert.Equal(t, []int{1, 2}, drain[int](t, src))
	_, ok, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, calls)
}

func TestPeek(t *testing.T) {
	head, src, err := Peek[int](context.Background(), FromSlice([]int{1, 2, 3, 4}), 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, head)
	assert.Equal(t, int64(4), *src.EstimatedSize())
	assert.Equal(t, []int{1, 2, 3, 4}, drain(t, src))
}

func TestPeek_ShortSource(t *testing.T) {
	head, src, err := Peek[int](context.Background(), FromSlice([]int{7}), 50)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, head)
	assert.Equal(t, []int{7}, drain(t, src))
}

func TestPeek_NegativeCount(t *testing.T) {
	head, src, err := Peek[int](context.Background(), FromSlice([]int{1, 2}), -1)
	require.NoError(t, err)
	assert.Empty(t, head)
	assert.Equal(t, []int{1, 2}, drain(t, src))
}
