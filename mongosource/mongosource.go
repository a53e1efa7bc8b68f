package mongosource

import (
	"context"

	"github.com/evantbyrne/folio"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Source pages through the documents of a collection that match a filter.
// Pagination maps onto skip and limit.
type Source[T any] struct {
	collection *mongo.Collection
	filter     any
	limit      int64
	skip       int64
	sort       bson.D
}

func (source Source[T]) Count(ctx context.Context) (int, error) {
	count, err := source.collection.CountDocuments(ctx, source.filter)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (source Source[T]) FetchAll(ctx context.Context) ([]T, error) {
	opts := options.Find()
	if len(source.sort) > 0 {
		opts.SetSort(source.sort)
	}
	if source.skip > 0 {
		opts.SetSkip(source.skip)
	}
	if source.limit > 0 {
		opts.SetLimit(source.limit)
	}
	zerolog.Ctx(ctx).Debug().
		Str("collection", source.collection.Name()).
		Int64("skip", source.skip).
		Int64("limit", source.limit).
		Msg("folio: mongo find")

	cursor, err := source.collection.Find(ctx, source.filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	values := make([]T, 0)
	if err := cursor.All(ctx, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// Paginate returns a copy limited to one page. Without a sort the copy is
// ordered by _id so that skip and limit select stable pages.
func (source Source[T]) Paginate(limit int, offset int) folio.Source[T] {
	if len(source.sort) == 0 {
		source.sort = bson.D{{Key: "_id", Value: 1}}
	}
	source.limit = int64(limit)
	source.skip = int64(offset)
	return source
}

// New builds a source over collection. A nil filter matches every document.
func New[T any](collection *mongo.Collection, filter any, sort ...bson.E) Source[T] {
	if filter == nil {
		filter = bson.D{}
	}
	return Source[T]{
		collection: collection,
		filter:     filter,
		sort:       bson.D(sort),
	}
}
