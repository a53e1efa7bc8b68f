package server

import (
	"fmt"
	"sort"
)

//go:generate templ generate

func rowColumns(rows []*Row) []string {
	seen := make(map[string]bool)
	columns := make([]string, 0)
	for _, row := range rows {
		for column := range *row {
			if !seen[column] {
				seen[column] = true
				columns = append(columns, column)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

func cell(row *Row, column string) string {
	if v, ok := (*row)[column]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}
