package folio

import (
	"database/sql"
	"reflect"
)

// ScanFieldsToMap scans the current row into a column keyed map. With
// anyColumn set, columns missing from fields are scanned as driver values.
func ScanFieldsToMap(rows *sql.Rows, fields map[string]reflect.StructField, anyColumn bool) (map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	pointers := make([]any, len(columns))
	for i, column := range columns {
		field, ok := fields[column]
		if ok {
			pointers[i] = reflect.New(field.Type).Interface()
		} else if anyColumn {
			pointers[i] = new(any)
		} else {
			return nil, ErrorInvalidColumn{Column: column}
		}
	}

	if err := rows.Scan(pointers...); err != nil {
		return nil, err
	}

	row := make(map[string]any, len(columns))
	for i, column := range columns {
		value := reflect.ValueOf(pointers[i]).Elem().Interface()
		if raw, ok := value.([]byte); ok && anyColumn {
			value = string(raw)
		}
		row[column] = value
	}
	return row, nil
}
