package folio

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Weave maps a model type to a table. Struct fields are mapped through the
// `@:"column"` tag. A map[string]any model accepts every column and needs
// WeaveConfig.Table. PrimaryColumn comes from the `@primary:"true"` tag or
// WeaveConfig.Primary and orders paginated queries that have no sort.
type Weave[T any] struct {
	Config        WeaveConfig
	Fields        map[string]reflect.StructField
	PrimaryColumn string
	Table         string
	Type          reflect.Type
}

func (weave *Weave[T]) isMap() bool {
	return weave.Type != nil && weave.Type.Kind() == reflect.Map
}

func (weave *Weave[T]) Scan(rows *sql.Rows) (*T, error) {
	data, err := ScanFieldsToMap(rows, weave.Fields, weave.isMap())
	if err != nil {
		return nil, err
	}
	return weave.ScanMap(data)
}

func (weave *Weave[T]) ScanMap(data map[string]any) (*T, error) {
	var row T
	if weave.isMap() {
		target, ok := any(&row).(*map[string]any)
		if !ok {
			return nil, fmt.Errorf("folio: unsupported map model '%s'. Use map[string]any", weave.Type)
		}
		*target = data
		return &row, nil
	}

	value := reflect.ValueOf(&row).Elem()
	for column, v := range data {
		structField, ok := weave.Fields[column]
		if !ok {
			return nil, ErrorInvalidColumn{Column: column, Table: weave.Table}
		}
		field := value.FieldByIndex(structField.Index)
		if v == nil {
			// database/sql null types default to `Valid: false`.
			continue
		}

		columnValue := reflect.ValueOf(v)
		switch {
		case columnValue.Type().AssignableTo(field.Type()):
			field.Set(columnValue)

		case isNumberKind(columnValue.Kind()) && isNumberKind(field.Kind()):
			field.Set(columnValue.Convert(field.Type()))

		case field.Kind() == reflect.String && columnValue.Kind() == reflect.Slice && columnValue.Type().Elem().Kind() == reflect.Uint8:
			field.SetString(string(columnValue.Bytes()))

		default:
			scanner, ok := field.Addr().Interface().(sql.Scanner)
			if !ok {
				return nil, fmt.Errorf("folio: unhandled type conversion in scan from '%s' to '%s'", columnValue.Type(), field.Type())
			}
			if err := scanner.Scan(v); err != nil {
				return nil, fmt.Errorf("folio: scan column '%s': %w", column, err)
			}
		}
	}
	return &row, nil
}

func isNumberKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

type WeaveConfig struct {
	NoCache bool
	Primary string
	Table   string
}

type WeaveConfigurable interface {
	WeaveConfig() WeaveConfig
}

var weavesCache = &sync.Map{}

func PurgeWeaves() {
	weavesCache.Range(func(key, value any) bool {
		weavesCache.Delete(key)
		return true
	})
}

func Use[T any]() *Weave[T] {
	var model T
	if weaveConfigurable, ok := any(model).(WeaveConfigurable); ok {
		return UseWith[T](weaveConfigurable.WeaveConfig())
	}
	return UseWith[T](WeaveConfig{})
}

func UseWith[T any](config WeaveConfig) *Weave[T] {
	modelType := reflect.TypeOf((*T)(nil)).Elem()
	modelTypeStr := fmt.Sprintf("%s%+v", modelType.String(), config)

	if !config.NoCache {
		if existing, ok := weavesCache.Load(modelTypeStr); ok {
			if weave, ok := existing.(*Weave[T]); ok {
				return weave
			}
		}
	}

	fields := make(map[string]reflect.StructField, 0)
	weave := &Weave[T]{
		Config: config,
		Fields: fields,
		Type:   modelType,
	}
	if modelType.Kind() == reflect.Struct {
		for _, field := range reflect.VisibleFields(modelType) {
			if column, ok := field.Tag.Lookup("@"); ok && field.IsExported() {
				fields[column] = field
				if field.Tag.Get("@primary") == "true" {
					weave.PrimaryColumn = column
				}
			}
		}
	}

	if config.Primary != "" {
		weave.PrimaryColumn = config.Primary
	}
	if config.Table == "" {
		weave.Table = strings.ToLower(modelType.Name())
	} else {
		weave.Table = config.Table
	}
	if !config.NoCache {
		weavesCache.Store(modelTypeStr, weave)
	}
	return weave
}
