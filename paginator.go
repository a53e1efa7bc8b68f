package folio

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/exp/maps"
)

const DefaultPageSize = 25

// TokenGenerator produces a continuation token for a page when none was
// stored explicitly.
type TokenGenerator func(page int) (string, bool)

type tokenKey struct {
	pageSize int
	page     int
}

// Paginator pages through a Source. Every With* method returns a new
// Paginator and leaves the receiver untouched. A fetched page is cached on
// the instance that fetched it.
type Paginator[T any] struct {
	count          int
	currentPage    int
	limit          int
	pagesCount     int
	pageTokens     map[tokenKey]string
	source         Source[T]
	tokenGenerator TokenGenerator

	mu     sync.Mutex
	cache  []T
	cached bool
}

// New wraps source. A positive count is used as the total number of items,
// otherwise the source is asked through Counter when it implements it.
func New[T any](ctx context.Context, source Source[T], pageSize int, count ...int) (*Paginator[T], error) {
	paginator := &Paginator[T]{
		currentPage: 1,
		limit:       max(pageSize, 1),
		pageTokens:  make(map[tokenKey]string),
		source:      source,
	}
	if len(count) > 0 && count[0] > 0 {
		paginator.count = count[0]
	} else if counter, ok := source.(Counter); ok {
		total, err := counter.Count(ctx)
		if err != nil {
			return nil, err
		}
		zerolog.Ctx(ctx).Debug().Int("count", total).Msg("folio: counted source")
		paginator.count = max(total, 0)
	}
	paginator.calcPages()
	return paginator, nil
}

func (paginator *Paginator[T]) calcPages() {
	if paginator.count > 0 {
		paginator.pagesCount = (paginator.count + paginator.limit - 1) / paginator.limit
	} else {
		paginator.pagesCount = 1
	}
}

func (paginator *Paginator[T]) clone() *Paginator[T] {
	return &Paginator[T]{
		count:          paginator.count,
		currentPage:    paginator.currentPage,
		limit:          paginator.limit,
		pagesCount:     paginator.pagesCount,
		pageTokens:     maps.Clone(paginator.pageTokens),
		source:         paginator.source,
		tokenGenerator: paginator.tokenGenerator,
	}
}

// Read returns the items of the current page, fetching them on first use.
// Source errors are returned as is and nothing is cached.
func (paginator *Paginator[T]) Read(ctx context.Context) ([]T, error) {
	paginator.mu.Lock()
	defer paginator.mu.Unlock()
	if paginator.cached {
		return paginator.cache, nil
	}

	source := paginator.source
	if paginable, ok := source.(Paginable[T]); ok {
		source = paginable.Paginate(paginator.limit, paginator.Offset())
	}
	zerolog.Ctx(ctx).Debug().
		Int("page", paginator.currentPage).
		Int("limit", paginator.limit).
		Int("offset", paginator.Offset()).
		Msg("folio: fetching page")

	values, err := source.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	paginator.cache = values
	paginator.cached = true
	return values, nil
}

// CurrentPageSize is the number of items on the current page. After Read it
// is exact, before Read it is derived from the total count.
func (paginator *Paginator[T]) CurrentPageSize() int {
	paginator.mu.Lock()
	cached, size := paginator.cached, len(paginator.cache)
	paginator.mu.Unlock()
	if cached {
		return size
	}
	if paginator.pagesCount == 1 {
		return paginator.count
	}
	if paginator.currentPage == paginator.pagesCount {
		return paginator.count - (paginator.currentPage-1)*paginator.limit
	}
	return paginator.limit
}

func (paginator *Paginator[T]) ItemsCount() int {
	return paginator.count
}

func (paginator *Paginator[T]) WithTokenGenerator(generator TokenGenerator) *Paginator[T] {
	result := paginator.clone()
	result.tokenGenerator = generator
	return result
}

func (paginator *Paginator[T]) IsOnFirstPage() bool {
	return paginator.currentPage == 1
}

func (paginator *Paginator[T]) IsOnLastPage() bool {
	return paginator.currentPage == paginator.pagesCount
}

// PageToken returns the continuation token for page under the current page
// size. Pages outside [1, TotalPages()] never have a token.
func (paginator *Paginator[T]) PageToken(page int) (string, bool) {
	if page < 1 || page > paginator.pagesCount {
		return "", false
	}
	if token, ok := paginator.pageTokens[tokenKey{paginator.limit, page}]; ok {
		return token, true
	}
	if paginator.tokenGenerator == nil {
		return "", false
	}
	return paginator.tokenGenerator(page)
}

// PageTokens returns the explicitly stored tokens visible under the current
// page size, keyed by page number.
func (paginator *Paginator[T]) PageTokens() map[int]string {
	tokens := make(map[int]string)
	for key, token := range paginator.pageTokens {
		if key.pageSize == paginator.limit {
			tokens[key.page] = token
		}
	}
	return tokens
}

// WithPageToken stores token for page under the current page size. The page
// is not range checked. An empty token removes the stored one.
func (paginator *Paginator[T]) WithPageToken(page int, token string) *Paginator[T] {
	result := paginator.clone()
	key := tokenKey{result.limit, page}
	if token == "" {
		delete(result.pageTokens, key)
	} else {
		result.pageTokens[key] = token
	}
	return result
}

func (paginator *Paginator[T]) WithPreviousPageToken(token string) *Paginator[T] {
	return paginator.WithPageToken(paginator.currentPage-1, token)
}

func (paginator *Paginator[T]) WithNextPageToken(token string) *Paginator[T] {
	return paginator.WithPageToken(paginator.currentPage+1, token)
}

func (paginator *Paginator[T]) PreviousPageToken() (string, bool) {
	return paginator.PageToken(paginator.currentPage - 1)
}

func (paginator *Paginator[T]) NextPageToken() (string, bool) {
	return paginator.PageToken(paginator.currentPage + 1)
}

func (paginator *Paginator[T]) WithCurrentPage(page int) *Paginator[T] {
	result := paginator.clone()
	result.currentPage = max(1, min(page, paginator.pagesCount))
	return result
}

// WithPageSize changes the page size and recomputes the page count. The
// current page number is kept as is, even when it now exceeds TotalPages().
func (paginator *Paginator[T]) WithPageSize(limit int) *Paginator[T] {
	result := paginator.clone()
	result.limit = max(limit, 1)
	result.calcPages()
	return result
}

func (paginator *Paginator[T]) PageSize() int {
	return paginator.limit
}

func (paginator *Paginator[T]) CurrentPage() int {
	return paginator.currentPage
}

func (paginator *Paginator[T]) TotalPages() int {
	return paginator.pagesCount
}

func (paginator *Paginator[T]) Offset() int {
	return (paginator.currentPage - 1) * paginator.limit
}

// Pages lists the page numbers within window of the current page.
func (paginator *Paginator[T]) Pages(window int) []int {
	window = max(window, 0)
	first := max(1, paginator.currentPage-window)
	last := min(paginator.pagesCount, paginator.currentPage+window)
	pages := make([]int, 0, max(last-first+1, 0))
	for page := first; page <= last; page++ {
		pages = append(pages, page)
	}
	return pages
}

// Page reads the current page and wraps it with its navigation state.
func (paginator *Paginator[T]) Page(ctx context.Context) *Page[T] {
	page := &Page[T]{
		CurrentPage: paginator.currentPage,
		HasNext:     paginator.currentPage < paginator.pagesCount,
		HasPrevious: paginator.currentPage > 1,
		Offset:      paginator.Offset(),
		PageSize:    paginator.limit,
		TotalCount:  paginator.count,
		TotalPages:  paginator.pagesCount,
	}
	page.Items, page.Error = paginator.Read(ctx)
	if page.Error != nil {
		return page
	}
	page.Size = paginator.CurrentPageSize()
	page.NextToken, _ = paginator.NextPageToken()
	page.PreviousToken, _ = paginator.PreviousPageToken()
	return page
}

func (paginator *Paginator[T]) Source() Source[T] {
	return paginator.source
}
