package postgres

import (
	"reflect"
	"sync"
)

// column metadata is computed once per type and cached; repositories
// hit this on every write.
type colInfo struct {
	index    int
	name     string
	embedded bool
}

var colCache sync.Map // map[reflect.Type][]colInfo

func columnsOf(t reflect.Type) []colInfo {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := colCache.Load(t); ok {
		return cached.([]colInfo)
	}

	var cols []colInfo
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Anonymous {
				cols = append(cols, colInfo{index: i, embedded: true})
				continue
			}
			tag := f.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			cols = append(cols, colInfo{index: i, name: tag})
		}
	}

	colCache.Store(t, cols)
	return cols
}

// ExtractDBColumns returns the column names declared by T's "db" tags,
// walking embedded structs in declaration order.
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnNames(reflect.TypeOf(zero))
}

func columnNames(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	var names []string
	for _, c := range columnsOf(t) {
		if c.embedded {
			names = append(names, columnNames(t.Field(c.index).Type)...)
			continue
		}
		names = append(names, c.name)
	}
	return names
}

// StructToMap converts a struct to a column->value map using "db" tags.
// Fields without a tag or tagged "-" are skipped; embedded structs are
// flattened.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	cols := columnsOf(rv.Type())
	res := make(map[string]any, len(cols))
	for _, c := range cols {
		if c.embedded {
			for k, val := range StructToMap(rv.Field(c.index).Interface()) {
				res[k] = val
			}
			continue
		}
		res[c.name] = rv.Field(c.index).Interface()
	}
	return res
}
