package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns lists the column names declared by T's `db` tags,
// walking embedded structs depth-first. Called once per repo at
// construction, so the reflection cost does not matter.
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			cols = append(cols, columnsOf(f.Type)...)
			continue
		}
		if tag := f.Tag.Get("db"); tag != "" && tag != "-" {
			cols = append(cols, tag)
		}
	}
	return cols
}

// structMeta caches per-type field layout so StructToMap reflects over
// each type only once.
type structMeta struct {
	// field index -> column name, tagged fields only
	tagged map[int]string
	// indices of anonymous fields to flatten recursively
	embedded []int
}

var structMetaCache sync.Map // reflect.Type -> *structMeta

func metaFor(t reflect.Type) *structMeta {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := structMetaCache.Load(t); ok {
		return cached.(*structMeta)
	}

	meta := &structMeta{tagged: map[int]string{}}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Anonymous {
				meta.embedded = append(meta.embedded, i)
				continue
			}
			if tag := f.Tag.Get("db"); tag != "" && tag != "-" {
				meta.tagged[i] = tag
			}
		}
	}

	structMetaCache.Store(t, meta)
	return meta
}

// StructToMap flattens a struct into column->value pairs keyed by `db`
// tags, recursing into embedded structs. Untagged fields are skipped.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metaFor(rv.Type())
	out := make(map[string]any, len(meta.tagged))
	for idx, col := range meta.tagged {
		out[col] = rv.Field(idx).Interface()
	}
	for _, idx := range meta.embedded {
		for col, val := range StructToMap(rv.Field(idx).Interface()) {
			out[col] = val
		}
	}
	return out
}
