package sheetexport

import (
	"context"
)

// RecordSource yields records one at a time. Next returns false once the
// source is exhausted. EstimatedSize returns the number of records the
// source expects to yield, or nil when unknown.
type RecordSource[T any] interface {
	Next(ctx context.Context) (T, bool, error)
	EstimatedSize() *int64
}

// SliceSource yields the elements of a slice.
type SliceSource[T any] struct {
	data []T
	pos  int
}

// FromSlice returns a source over data. Its estimated size is len(data).
func FromSlice[T any](data []T) *SliceSource[T] {
	return &SliceSource[T]{data: data}
}

func (s *SliceSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if s.pos >= len(s.data) {
		return zero, false, nil
	}
	v := s.data[s.pos]
	s.pos++
	return v, true, nil
}

func (s *SliceSource[T]) EstimatedSize() *int64 {
	n := int64(len(s.data))
	return &n
}

// ChannelSource yields records received from a channel until it is closed.
type ChannelSource[T any] struct {
	ch   <-chan T
	size *int64
}

// FromChannel returns a source reading ch. size is the expected number of
// records, nil when unknown.
func FromChannel[T any](ch <-chan T, size *int64) *ChannelSource[T] {
	return &ChannelSource[T]{ch: ch, size: size}
}

func (s *ChannelSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case v, ok := <-s.ch:
		if !ok {
			return zero, false, nil
		}
		return v, true, nil
	}
}

func (s *ChannelSource[T]) EstimatedSize() *int64 { return s.size }

// IteratorFunc returns the next record, false when done, or an error.
type IteratorFunc[T any] func(ctx context.Context) (T, bool, error)

// IteratorSource yields records produced by a function.
type IteratorSource[T any] struct {
	next IteratorFunc[T]
	size *int64
	done bool
}

// FromIterator returns a source calling next until it reports false or
// fails. Once exhausted, next is not called again.
func FromIterator[T any](next IteratorFunc[T], size *int64) *IteratorSource[T] {
	return &IteratorSource[T]{next: next, size: size}
}

func (s *IteratorSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if s.done {
		return zero, false, nil
	}
	v, ok, err := s.next(ctx)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		s.done = true
		return zero, false, nil
	}
	return v, true, nil
}

func (s *IteratorSource[T]) EstimatedSize() *int64 { return s.size }

type peekedSource[T any] struct {
	head []T
	rest RecordSource[T]
}

// Peek reads up to n records from src and returns them together with a
// source that yields them again before continuing with src. A negative n
// reads nothing.
func Peek[T any](ctx context.Context, src RecordSource[T], n int) ([]T, RecordSource[T], error) {
	if n < 0 {
		n = 0
	}
	head := make([]T, 0, n)
	for len(head) < n {
		v, ok, err := src.Next(ctx)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}
		head = append(head, v)
	}
	return head, &peekedSource[T]{head: append([]T(nil), head...), rest: src}, nil
}

func (s *peekedSource[T]) Next(ctx context.Context) (T, bool, error) {
	if len(s.head) > 0 {
		v := s.head[0]
		s.head = s.head[1:]
		return v, true, nil
	}
	return s.rest.Next(ctx)
}

func (s *peekedSource[T]) EstimatedSize() *int64 { return s.rest.EstimatedSize() }
