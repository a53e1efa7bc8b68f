package mysqldialect

import (
	"database/sql"
	"strings"

	"github.com/evantbyrne/folio"
	"github.com/go-sql-driver/mysql"
)

// maxLimit stands in for "no limit" when only an offset is set.
const maxLimit uint64 = 18446744073709551615

type MysqlDialect struct{}

func (dialect MysqlDialect) BuildSelect(config folio.QueryConfig) (string, []any, error) {
	if config.Offset != nil && config.Limit == nil && !config.Count {
		config.Limit = maxLimit
	}
	return folio.BuildSelect(dialect, config)
}

func (dialect MysqlDialect) Param(int) string {
	return "?"
}

func (dialect MysqlDialect) QuoteIdentifier(identifier string) string {
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

// Open parses dsn in the go-sql-driver format and turns on parseTime so
// DATETIME columns scan into time.Time.
func Open(dsn string) (*sql.DB, error) {
	config, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	config.ParseTime = true
	connector, err := mysql.NewConnector(config)
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(connector), nil
}
