package folio

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// QueryViewStream applies the request's filter, sort and pagination
// parameters to a query, as far as the view allows them.
//
//	?filter.title__like=go%&sort=-id&page=2&size=50
//	?token=<OffsetTokens token, or one known to the Resolver>
type QueryViewStream[T any] struct {
	Context  context.Context
	Error    error
	Query    *QueryStream[T]
	Request  *http.Request
	Resolver TokenResolver
	View     *View
}

// TokenResolver maps a token that is not an offset token back to the page
// size and page it was handed out for.
type TokenResolver func(ctx context.Context, token string) (page int, pageSize int, ok bool, err error)

func (stream *QueryViewStream[T]) Collect() (*QueryStream[T], *View, error) {
	return stream.Query, stream.View, stream.Error
}

func (stream *QueryViewStream[T]) Filter() *QueryViewStream[T] {
	if stream.Error != nil {
		return stream
	}
	if len(stream.View.Config.Query.Filters) > 0 {
		stream.Query = stream.Query.Where(stream.View.Config.Query.Filters)
	}
	values := stream.Request.URL.Query()
	keys := maps.Keys(values)
	slices.Sort(keys)
	for _, key := range keys {
		keyCleaned, filtering := strings.CutPrefix(key, "filter.")
		if !filtering {
			continue
		}
		keyParts := strings.SplitN(keyCleaned, "__", 2)
		column := keyParts[0]
		columnFilters, columnOk := stream.View.Config.AllowFilters[column]
		if !columnOk {
			stream.Error = ErrorUnauthorized{}
			return stream
		}
		_, columnWildcard := columnFilters["*"]

		operatorName := "eq"
		if len(keyParts) > 1 {
			operatorName = keyParts[1]
		}
		operator, operatorNameOk := FilterOperators[operatorName]
		if !operatorNameOk {
			stream.Error = ErrorUnauthorized{}
			return stream
		}
		if _, operatorOk := columnFilters[operatorName]; !operatorOk && !columnWildcard {
			stream.Error = ErrorUnauthorized{}
			return stream
		}

		for _, vv := range values[key] {
			switch operator {
			case "IN", "NOT IN":
				vvs := strings.Split(vv, ",")
				vvl := make([]any, len(vvs))
				for i := range vvs {
					vvl[i] = vvs[i]
				}
				stream.Query = stream.Query.Filter(column, operator, vvl)

			case "IS NULL", "IS NOT NULL":
				stream.Query = stream.Query.Filter(column, operator, nil)

			default:
				stream.Query = stream.Query.Filter(column, operator, vv)
			}
		}
	}
	return stream
}

func (stream *QueryViewStream[T]) OnError(callback func(error) error) *QueryViewStream[T] {
	if stream.Error != nil {
		stream.Error = callback(stream.Error)
	}
	return stream
}

// Paginator counts the filtered query and positions the result on the
// requested page. A token takes precedence over page and size.
func (stream *QueryViewStream[T]) Paginator() (*Paginator[*T], error) {
	if stream.Error != nil {
		return nil, stream.Error
	}
	values := stream.Request.URL.Query()

	pageSize := stream.View.pageSize()
	if size := values.Get("size"); size != "" {
		sizeInt, err := strconv.Atoi(size)
		if err != nil || !stream.allowPageSize(sizeInt) {
			return nil, ErrorUnauthorized{}
		}
		pageSize = sizeInt
	}

	page := 1
	if token := values.Get("token"); token != "" {
		tokenPage, tokenSize, err := stream.resolveToken(token)
		if err != nil {
			return nil, err
		}
		if !stream.allowPageSize(tokenSize) {
			return nil, ErrorUnauthorized{}
		}
		pageSize = tokenSize
		page = tokenPage
	} else if raw := values.Get("page"); raw != "" {
		pageInt, err := strconv.Atoi(raw)
		if err != nil {
			return nil, ErrorBadRequest{Message: "Invalid page number"}
		}
		page = pageInt
	}

	paginator, err := stream.Query.Paginator(stream.Context, pageSize)
	if err != nil {
		return nil, err
	}
	return paginator.
		WithCurrentPage(page).
		WithTokenGenerator(OffsetTokens(pageSize)), nil
}

func (stream *QueryViewStream[T]) resolveToken(token string) (page int, pageSize int, err error) {
	if offset, size, err := DecodeOffsetToken(token); err == nil {
		return offset/size + 1, size, nil
	}
	if stream.Resolver != nil {
		page, pageSize, ok, err := stream.Resolver(stream.Context, token)
		if err != nil {
			return 0, 0, err
		}
		if ok {
			return page, pageSize, nil
		}
	}
	return 0, 0, ErrorBadRequest{Message: "Invalid page token"}
}

// ResolveTokens accepts tokens that resolver knows about in addition to
// offset tokens.
func (stream *QueryViewStream[T]) ResolveTokens(resolver TokenResolver) *QueryViewStream[T] {
	if stream.Error == nil {
		stream.Resolver = resolver
	}
	return stream
}

func (stream *QueryViewStream[T]) allowPageSize(size int) bool {
	if size == stream.View.pageSize() {
		return true
	}
	return size > 0 && size <= stream.View.Config.AllowPageSize
}

func (stream *QueryViewStream[T]) Sort() *QueryViewStream[T] {
	if stream.Error != nil {
		return stream
	}
	if stream.Request.URL.Query().Has("sort") && len(stream.View.Config.AllowSort) > 0 {
		_, sortWildcard := stream.View.Config.AllowSort["*"]
		sortColumns := make([]string, 0)
		for _, sortColumn := range strings.Split(stream.Request.URL.Query().Get("sort"), ",") {
			s, _ := strings.CutPrefix(sortColumn, "-")
			if s == "" {
				stream.Error = ErrorBadRequest{Message: "Invalid sort column"}
				return stream
			}
			if _, ok := stream.View.Config.AllowSort[s]; ok || sortWildcard {
				sortColumns = append(sortColumns, sortColumn)
			} else {
				stream.Error = ErrorUnauthorized{}
				return stream
			}
		}
		if len(sortColumns) > 0 {
			stream.Query = stream.Query.Sort(sortColumns...)
		}
	}
	return stream
}

func (stream *QueryViewStream[T]) Then(callback func(*QueryStream[T], *View) error) *QueryViewStream[T] {
	if stream.Error == nil {
		stream.Error = callback(stream.Query, stream.View)
	}
	return stream
}

// QueryView binds a copy of query to the request. The query passed in is
// never modified.
func QueryView[T any](request *http.Request, query *QueryStream[T], view *View) *QueryViewStream[T] {
	if view == nil {
		view = Deny()
	}
	return &QueryViewStream[T]{
		Context: request.Context(),
		Error:   query.Error,
		Query:   query.clone(),
		Request: request,
		View:    view,
	}
}
