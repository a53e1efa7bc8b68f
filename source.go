package folio

import (
	"context"
)

// Source is the data collaborator wrapped by a Paginator.
type Source[T any] interface {
	FetchAll(ctx context.Context) ([]T, error)
}

// Counter is implemented by sources that can report their own size without
// fetching every item.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Paginable is implemented by sources that accept a limit and offset. The
// returned source is a configured copy; the receiver must not change.
type Paginable[T any] interface {
	Paginate(limit int, offset int) Source[T]
}

// SliceSource serves items from memory. It is self-sizing and paginable.
type SliceSource[T any] struct {
	Items []T

	limit  int
	offset int
}

func (source SliceSource[T]) Count(context.Context) (int, error) {
	return len(source.Items), nil
}

func (source SliceSource[T]) FetchAll(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := min(max(source.offset, 0), len(source.Items))
	end := len(source.Items)
	if source.limit > 0 {
		end = min(start+source.limit, end)
	}
	values := make([]T, end-start)
	copy(values, source.Items[start:end])
	return values, nil
}

func (source SliceSource[T]) Paginate(limit int, offset int) Source[T] {
	source.limit = limit
	source.offset = offset
	return source
}

// SourceFunc adapts a plain fetch function. It has no optional capabilities.
type SourceFunc[T any] func(ctx context.Context) ([]T, error)

func (fn SourceFunc[T]) FetchAll(ctx context.Context) ([]T, error) {
	return fn(ctx)
}

func Slice[T any](items ...T) SliceSource[T] {
	return SliceSource[T]{Items: items}
}
