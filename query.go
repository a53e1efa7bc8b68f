package folio

import (
	"context"
	"database/sql"
	"reflect"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
)

type QueryConfig struct {
	Count       bool
	Fields      map[string]reflect.StructField
	Filters     []FilterClause
	Limit       any
	Offset      any
	Params      []any
	Selected    []any
	Sort        []string
	Table       string
	Transaction *sql.Tx
}

// QueryStream is a SELECT over one table. It is a Source of *T that can
// count itself and be paginated, so it can be handed straight to New.
type QueryStream[T any] struct {
	Config QueryConfig
	Error  error
	Weave  *Weave[T]

	db      *sql.DB
	dialect Dialect
}

func (query *QueryStream[T]) clone() *QueryStream[T] {
	result := *query
	result.Config.Filters = slices.Clone(query.Config.Filters)
	result.Config.Params = slices.Clone(query.Config.Params)
	result.Config.Selected = slices.Clone(query.Config.Selected)
	result.Config.Sort = slices.Clone(query.Config.Sort)
	return &result
}

func (query *QueryStream[T]) configure() QueryConfig {
	config := query.Config
	config.Fields = query.Weave.Fields
	config.Table = query.Weave.Table
	return config
}

func (query *QueryStream[T]) prepare() (*sql.DB, Dialect, error) {
	if query.Error != nil {
		return nil, nil, query.Error
	}
	db := query.db
	if db == nil {
		db = Database()
	}
	if db == nil && query.Config.Transaction == nil {
		return nil, nil, UseDatabaseError{}
	}
	dialect := query.dialect
	if dialect == nil {
		dialect = defaultDialect
	}
	if dialect == nil {
		return nil, nil, NoDialectError{}
	}
	return db, dialect, nil
}

func (query *QueryStream[T]) Count(ctx context.Context) (int, error) {
	var count int
	db, dialect, err := query.prepare()
	if err != nil {
		return count, err
	}

	config := query.configure()
	config.Count = true
	queryString, args, err := dialect.BuildSelect(config)
	if err != nil {
		return count, err
	}
	zerolog.Ctx(ctx).Debug().Str("sql", queryString).Msg("folio: count query")

	if config.Transaction != nil {
		err = config.Transaction.QueryRowContext(ctx, queryString, args...).Scan(&count)
	} else {
		err = db.QueryRowContext(ctx, queryString, args...).Scan(&count)
	}
	return count, err
}

func (query *QueryStream[T]) Database(db *sql.DB) *QueryStream[T] {
	if query.Error == nil {
		query.db = db
	}
	return query
}

func (query *QueryStream[T]) dbQuery(ctx context.Context, db *sql.DB, queryString string, args ...any) (*sql.Rows, error) {
	if query.Config.Transaction != nil {
		return query.Config.Transaction.QueryContext(ctx, queryString, args...)
	}
	return db.QueryContext(ctx, queryString, args...)
}

func (query *QueryStream[T]) Dialect(dialect Dialect) *QueryStream[T] {
	if query.Error == nil {
		query.dialect = dialect
	}
	return query
}

func (query *QueryStream[T]) FetchAll(ctx context.Context) ([]*T, error) {
	db, dialect, err := query.prepare()
	if err != nil {
		return nil, err
	}

	queryString, args, err := dialect.BuildSelect(query.configure())
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Str("sql", queryString).Msg("folio: select query")

	rows, err := query.dbQuery(ctx, db, queryString, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]*T, 0)
	for rows.Next() {
		row, err := query.Weave.Scan(rows)
		if err != nil {
			return nil, err
		}
		values = append(values, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

func (query *QueryStream[T]) Filter(column any, operator string, value any) *QueryStream[T] {
	return query.Where(Q(column, operator, value))
}

func (query *QueryStream[T]) FilterAnd(clauses ...any) *QueryStream[T] {
	return query.Where(And(clauses...))
}

func (query *QueryStream[T]) FilterOr(clauses ...any) *QueryStream[T] {
	return query.Where(Or(clauses...))
}

func (query *QueryStream[T]) Limit(limit any) *QueryStream[T] {
	if query.Error == nil {
		query.Config.Limit = limit
	}
	return query
}

func (query *QueryStream[T]) Offset(offset any) *QueryStream[T] {
	if query.Error == nil {
		query.Config.Offset = offset
	}
	return query
}

// Paginate returns a copy limited to one page. The receiver is unchanged.
// Without a sort the copy is ordered by the weave's primary column so that
// pages neither overlap nor skip rows.
func (query *QueryStream[T]) Paginate(limit int, offset int) Source[*T] {
	page := query.clone()
	if len(page.Config.Sort) == 0 && page.Weave != nil && page.Weave.PrimaryColumn != "" {
		page = page.Sort(page.Weave.PrimaryColumn)
	}
	return page.Limit(limit).Offset(offset)
}

func (query *QueryStream[T]) Paginator(ctx context.Context, pageSize int, count ...int) (*Paginator[*T], error) {
	return New[*T](ctx, query, pageSize, count...)
}

func (query *QueryStream[T]) Select(columns ...any) *QueryStream[T] {
	if query.Error == nil {
		query.Config.Selected = columns
	}
	return query
}

func (query *QueryStream[T]) Sort(columns ...string) *QueryStream[T] {
	if query.Error == nil {
		query.Config.Sort = columns
	}
	return query
}

func (query QueryStream[T]) StringWithArgs(dialect Dialect, args []any) (string, []any, error) {
	config := query.configure()
	config.Params = args
	return dialect.BuildSelect(config)
}

func (query *QueryStream[T]) Transaction(transaction *sql.Tx) *QueryStream[T] {
	query.Config.Transaction = transaction
	return query
}

// Where appends clause to the filters, joined to earlier ones with AND.
func (query *QueryStream[T]) Where(clause any) *QueryStream[T] {
	if query.Error != nil {
		return query
	}
	if len(query.Config.Filters) > 0 {
		query.Config.Filters = append(query.Config.Filters, FilterClause{Rule: "AND"})
	}
	query.Config.Filters = flattenFilterClause(query.Config.Filters, clause)
	return query
}

var database *sql.DB

func Database() *sql.DB {
	return database
}

func UseDatabase(db *sql.DB) {
	database = db
}

func Query[T any]() *QueryStream[T] {
	return &QueryStream[T]{
		Weave: Use[T](),
	}
}

func QueryWith[T any](config WeaveConfig) *QueryStream[T] {
	return &QueryStream[T]{
		Weave: UseWith[T](config),
	}
}
