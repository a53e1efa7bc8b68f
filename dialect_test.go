package folio

import (
	"fmt"
	"strings"
)

type testDialect struct{}

func (dialect testDialect) BuildSelect(config QueryConfig) (string, []any, error) {
	return BuildSelect(dialect, config)
}

func (dialect testDialect) Param(identifier int) string {
	return fmt.Sprintf("$%d", identifier)
}

func (dialect testDialect) QuoteIdentifier(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, ".", `"."`) + `"`
}
