package folio

import (
	"fmt"
	"reflect"
	"strings"
)

type SqlAs struct {
	Alias  string
	Column any
}

func (as SqlAs) StringForDialect(dialect Dialect) string {
	return fmt.Sprint(sqlIdentifier(dialect, as.Column), " AS ", dialect.QuoteIdentifier(as.Alias))
}

func As(column any, alias string) SqlAs {
	return SqlAs{Alias: alias, Column: column}
}

type SqlColumn string

func (column SqlColumn) StringForDialect(dialect Dialect) string {
	return dialect.QuoteIdentifier(string(column))
}

func Column(name string) SqlColumn {
	return SqlColumn(name)
}

type SqlUnsafe string

func (unsafe SqlUnsafe) StringForDialect(Dialect) string {
	return string(unsafe)
}

// Unsafe embeds raw SQL. Never pass user input.
func Unsafe(sql string) SqlUnsafe {
	return SqlUnsafe(sql)
}

func sqlIdentifier(dialect Dialect, value any) string {
	switch v := value.(type) {
	case string:
		return dialect.QuoteIdentifier(v)
	case DialectStringer:
		return v.StringForDialect(dialect)
	default:
		return fmt.Sprint(v)
	}
}

var filterOperators = map[string]bool{
	"=":           true,
	"!=":          true,
	"<>":          true,
	"<":           true,
	"<=":          true,
	">":           true,
	">=":          true,
	"LIKE":        true,
	"NOT LIKE":    true,
	"IN":          true,
	"NOT IN":      true,
	"IS NULL":     true,
	"IS NOT NULL": true,
}

// FilterClause is either a comparison (Left Operator Right) or a bare rule
// such as "AND", "OR", "NOT", "(" and ")".
type FilterClause struct {
	Left     any
	Operator string
	Right    any
	Rule     string
}

func (clause FilterClause) StringWithArgs(dialect Dialect, args []any) (string, []any, error) {
	switch clause.Rule {
	case "AND", "OR", "NOT", "(", ")":
		return " " + clause.Rule, args, nil
	case "":
	default:
		return "", nil, fmt.Errorf("folio: invalid filter rule '%s'", clause.Rule)
	}

	operator := strings.ToUpper(strings.TrimSpace(clause.Operator))
	if !filterOperators[operator] {
		return "", nil, fmt.Errorf("folio: invalid filter operator '%s'", clause.Operator)
	}
	left := sqlIdentifier(dialect, clause.Left)

	if subquery, ok := clause.Right.(DialectStringerWithArgs); ok {
		queryString, subArgs, err := subquery.StringWithArgs(dialect, args)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprint(" ", left, " ", operator, " (", queryString, ")"), subArgs, nil
	}

	switch operator {
	case "IS NULL", "IS NOT NULL":
		return fmt.Sprint(" ", left, " ", operator), args, nil

	case "IN", "NOT IN":
		value := reflect.ValueOf(clause.Right)
		if value.Kind() != reflect.Slice && value.Kind() != reflect.Array {
			return "", nil, fmt.Errorf("folio: filter operator '%s' requires a slice, got %T", operator, clause.Right)
		}
		if value.Len() == 0 {
			return "", nil, fmt.Errorf("folio: filter operator '%s' requires at least one value", operator)
		}
		var params strings.Builder
		for i := 0; i < value.Len(); i++ {
			if i > 0 {
				params.WriteString(",")
			}
			args = append(args, value.Index(i).Interface())
			params.WriteString(dialect.Param(len(args)))
		}
		return fmt.Sprint(" ", left, " ", operator, " (", params.String(), ")"), args, nil
	}

	if stringer, ok := clause.Right.(DialectStringer); ok {
		return fmt.Sprint(" ", left, " ", operator, " ", stringer.StringForDialect(dialect)), args, nil
	}
	args = append(args, clause.Right)
	return fmt.Sprint(" ", left, " ", operator, " ", dialect.Param(len(args))), args, nil
}

func Q(left any, operator string, right any) FilterClause {
	return FilterClause{Left: left, Operator: operator, Right: right}
}

// And joins clauses with AND. Each clause is a FilterClause or the result of
// And, Or or Not.
func And(clauses ...any) []FilterClause {
	return joinFilterClauses("AND", clauses)
}

func Or(clauses ...any) []FilterClause {
	return joinFilterClauses("OR", clauses)
}

func Not(clause any) []FilterClause {
	return flattenFilterClause([]FilterClause{{Rule: "NOT"}}, clause)
}

func joinFilterClauses(rule string, clauses []any) []FilterClause {
	joined := make([]FilterClause, 0)
	for i, clause := range clauses {
		if i > 0 {
			joined = append(joined, FilterClause{Rule: rule})
		}
		joined = flattenFilterClause(joined, clause)
	}
	return joined
}

func flattenFilterClause(flat []FilterClause, clause any) []FilterClause {
	switch cv := clause.(type) {
	case FilterClause:
		return append(flat, cv)
	case []FilterClause:
		if len(cv) > 1 && !isFilterGroup(cv) {
			flat = append(flat, FilterClause{Rule: "("})
			flat = append(flat, cv...)
			return append(flat, FilterClause{Rule: ")"})
		}
		return append(flat, cv...)
	default:
		panic(fmt.Sprintf("folio: invalid filter clause type %T", clause))
	}
}

// isFilterGroup reports whether clauses already render as one operand: a
// single comparison, a parenthesized group or NOT applied to either.
func isFilterGroup(clauses []FilterClause) bool {
	switch {
	case len(clauses) == 1:
		return clauses[0].Rule == ""
	case len(clauses) > 1 && clauses[0].Rule == "NOT":
		return isFilterGroup(clauses[1:])
	case len(clauses) > 1 && clauses[0].Rule == "(":
		depth := 0
		for i, clause := range clauses {
			switch clause.Rule {
			case "(":
				depth++
			case ")":
				depth--
			}
			if depth == 0 {
				return i == len(clauses)-1
			}
		}
	}
	return false
}

// BuildSelect renders config as a SELECT statement. Count queries ignore
// ORDER BY, LIMIT and OFFSET.
func BuildSelect(dialect Dialect, config QueryConfig) (string, []any, error) {
	args := append([]any(nil), config.Params...)
	var queryString strings.Builder
	if config.Count {
		queryString.WriteString("SELECT count(*) FROM ")
	} else if len(config.Selected) > 0 {
		queryString.WriteString("SELECT ")
		for i, column := range config.Selected {
			if i > 0 {
				queryString.WriteString(",")
			}
			switch cv := column.(type) {
			case string:
				queryString.WriteString(dialect.QuoteIdentifier(cv))

			case DialectStringer:
				queryString.WriteString(cv.StringForDialect(dialect))

			default:
				return "", nil, fmt.Errorf("folio: invalid column type %#v", column)
			}
		}
		queryString.WriteString(" FROM ")
	} else {
		queryString.WriteString("SELECT * FROM ")
	}

	// TABLE
	if config.Table == "" {
		return "", nil, fmt.Errorf("folio: missing table name")
	}
	queryString.WriteString(dialect.QuoteIdentifier(config.Table))

	// WHERE
	if len(config.Filters) > 0 {
		queryString.WriteString(" WHERE")
		for _, where := range config.Filters {
			queryWhere, whereArgs, err := where.StringWithArgs(dialect, args)
			if err != nil {
				return "", nil, err
			}
			args = whereArgs
			queryString.WriteString(queryWhere)
		}
	}

	if config.Count {
		return queryString.String(), args, nil
	}

	// ORDER BY
	if len(config.Sort) > 0 {
		queryString.WriteString(" ORDER BY ")
		for i, column := range config.Sort {
			if i > 0 {
				queryString.WriteString(", ")
			}
			if strings.HasPrefix(column, "-") {
				queryString.WriteString(dialect.QuoteIdentifier(column[1:]))
				queryString.WriteString(" DESC")
			} else {
				queryString.WriteString(dialect.QuoteIdentifier(column))
				queryString.WriteString(" ASC")
			}
		}
	}

	// LIMIT
	if config.Limit != nil {
		args = append(args, config.Limit)
		queryString.WriteString(" LIMIT ")
		queryString.WriteString(dialect.Param(len(args)))
	}

	// OFFSET
	if config.Offset != nil {
		args = append(args, config.Offset)
		queryString.WriteString(" OFFSET ")
		queryString.WriteString(dialect.Param(len(args)))
	}

	return queryString.String(), args, nil
}
