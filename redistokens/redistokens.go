package redistokens

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/evantbyrne/folio"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store persists continuation tokens in Redis hashes, one hash per scope and
// page size, keyed by page number. A second hash per scope maps each token
// back to its page size and page.
type Store struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// TokenSource is the part of a paginator Save reads from.
type TokenSource interface {
	PageSize() int
	PageTokens() map[int]string
}

func (store *Store) key(scope string, pageSize int) string {
	return fmt.Sprintf("%s:%s:%d", store.prefix, scope, pageSize)
}

func (store *Store) indexKey(scope string) string {
	return fmt.Sprintf("%s:%s:index", store.prefix, scope)
}

// Save writes every token stored on paginator for its page size. A zero TTL
// keeps the hash forever.
func (store *Store) Save(ctx context.Context, scope string, paginator TokenSource) error {
	tokens := paginator.PageTokens()
	if len(tokens) == 0 {
		return nil
	}
	pageSize := paginator.PageSize()
	key := store.key(scope, pageSize)
	indexKey := store.indexKey(scope)
	values := make(map[string]any, len(tokens))
	index := make(map[string]any, len(tokens))
	for page, token := range tokens {
		values[strconv.Itoa(page)] = token
		index[token] = fmt.Sprintf("%d:%d", pageSize, page)
	}
	_, err := store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values)
		pipe.HSet(ctx, indexKey, index)
		if store.ttl > 0 {
			pipe.Expire(ctx, key, store.ttl)
			pipe.Expire(ctx, indexKey, store.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("folio: save tokens: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("key", key).Int("tokens", len(tokens)).Msg("folio: saved page tokens")
	return nil
}

// Generator looks pages up in Redis. Lookup failures yield no token.
func (store *Store) Generator(ctx context.Context, scope string, pageSize int) folio.TokenGenerator {
	key := store.key(scope, pageSize)
	return func(page int) (string, bool) {
		token, err := store.client.HGet(ctx, key, strconv.Itoa(page)).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				zerolog.Ctx(ctx).Debug().Err(err).Str("key", key).Int("page", page).Msg("folio: token lookup failed")
			}
			return "", false
		}
		return token, token != ""
	}
}

// Lookup finds the page size and page a saved token was handed out for. ok
// is false when the token is unknown or has expired.
func (store *Store) Lookup(ctx context.Context, scope string, token string) (page int, pageSize int, ok bool, err error) {
	key := store.indexKey(scope)
	value, err := store.client.HGet(ctx, key, token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("folio: lookup token: %w", err)
	}
	rawSize, rawPage, found := strings.Cut(value, ":")
	pageSize, sizeErr := strconv.Atoi(rawSize)
	page, pageErr := strconv.Atoi(rawPage)
	if !found || sizeErr != nil || pageErr != nil {
		zerolog.Ctx(ctx).Debug().Str("key", key).Str("value", value).Msg("folio: skipping malformed token index entry")
		return 0, 0, false, nil
	}
	return page, pageSize, true, nil
}

// Resolver adapts Lookup for QueryViewStream.ResolveTokens.
func (store *Store) Resolver(scope string) folio.TokenResolver {
	return func(ctx context.Context, token string) (int, int, bool, error) {
		return store.Lookup(ctx, scope, token)
	}
}

// Restore returns a copy of paginator carrying every token persisted for its
// scope and page size.
func Restore[T any](ctx context.Context, store *Store, scope string, paginator *folio.Paginator[T]) (*folio.Paginator[T], error) {
	key := store.key(scope, paginator.PageSize())
	values, err := store.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("folio: restore tokens: %w", err)
	}
	for field, token := range values {
		page, err := strconv.Atoi(field)
		if err != nil {
			zerolog.Ctx(ctx).Debug().Str("key", key).Str("field", field).Msg("folio: skipping malformed token field")
			continue
		}
		paginator = paginator.WithPageToken(page, token)
	}
	return paginator, nil
}

func New(client redis.Cmdable, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "folio:tokens"
	}
	return &Store{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}
