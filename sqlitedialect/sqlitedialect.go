package sqlitedialect

import (
	"database/sql"
	"strings"

	"github.com/evantbyrne/folio"
	_ "github.com/mattn/go-sqlite3"
)

type SqliteDialect struct{}

func (dialect SqliteDialect) BuildSelect(config folio.QueryConfig) (string, []any, error) {
	if config.Offset != nil && config.Limit == nil && !config.Count {
		config.Limit = -1
	}
	return folio.BuildSelect(dialect, config)
}

func (dialect SqliteDialect) Param(int) string {
	return "?"
}

func (dialect SqliteDialect) QuoteIdentifier(identifier string) string {
	var query strings.Builder
	for i, part := range strings.Split(identifier, ".") {
		if i > 0 {
			query.WriteString(".")
		}
		query.WriteString("`")
		query.WriteString(strings.ReplaceAll(part, "`", "``"))
		query.WriteString("`")
	}
	return query.String()
}

func Open(dsn string) (*sql.DB, error) {
	return sql.Open("sqlite3", dsn)
}
