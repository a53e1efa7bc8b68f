package folio

type Dialect interface {
	BuildSelect(QueryConfig) (string, []any, error)
	Param(i int) string
	QuoteIdentifier(string) string
}

type DialectStringer interface {
	StringForDialect(Dialect) string
}

type DialectStringerWithArgs interface {
	StringWithArgs(Dialect, []any) (string, []any, error)
}

var defaultDialect Dialect

func SetDialect(dialect Dialect) {
	defaultDialect = dialect
}
