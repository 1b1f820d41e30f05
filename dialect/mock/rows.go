package mock

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"
)

// rows is an in-memory ColumnScanner over programmed result rows.
// Column order is the sorted key set of the first row, so iteration is
// deterministic.
type rows struct {
	columns []string
	data    []Row
	pos     int
	closed  bool
}

func newRows(data []Row) *rows {
	r := &rows{data: data, pos: -1}
	if len(data) > 0 {
		for col := range data[0] {
			r.columns = append(r.columns, col)
		}
		sort.Strings(r.columns)
	}
	return r
}

func (r *rows) Columns() ([]string, error) {
	if r.closed {
		return nil, errors.New("mock: rows are closed")
	}
	return r.columns, nil
}

// ColumnTypes is not available for programmed rows.
func (r *rows) ColumnTypes() ([]*sql.ColumnType, error) {
	return nil, errors.ErrUnsupported
}

func (r *rows) Next() bool {
	if r.closed {
		return false
	}
	r.pos++
	return r.pos < len(r.data)
}

func (r *rows) NextResultSet() bool { return false }

func (r *rows) Err() error { return nil }

func (r *rows) Close() error {
	r.closed = true
	return nil
}

func (r *rows) Scan(dest ...any) error {
	if r.closed {
		return errors.New("mock: rows are closed")
	}
	if r.pos < 0 || r.pos >= len(r.data) {
		return errors.New("mock: Scan called without Next")
	}
	if len(dest) != len(r.columns) {
		return fmt.Errorf("mock: expected %d destination arguments in Scan, got %d", len(r.columns), len(dest))
	}
	row := r.data[r.pos]
	for i, col := range r.columns {
		if err := convertAssign(dest[i], row[col]); err != nil {
			return fmt.Errorf("mock: scan column %q: %w", col, err)
		}
	}
	return nil
}

// convertAssign copies src into the scan destination, with the small
// set of conversions the live driver would perform.
func convertAssign(dest, src any) error {
	switch d := dest.(type) {
	case *any:
		*d = src
		return nil
	case sql.Scanner:
		return d.Scan(src)
	}
	if src == nil {
		// Non-pointer-to-pointer destinations cannot hold NULL.
		rv := reflect.ValueOf(dest)
		if rv.Kind() == reflect.Ptr && rv.Elem().Kind() == reflect.Ptr {
			rv.Elem().Set(reflect.Zero(rv.Elem().Type()))
			return nil
		}
		return fmt.Errorf("cannot scan NULL into %T", dest)
	}
	switch d := dest.(type) {
	case *string:
		switch s := src.(type) {
		case string:
			*d = s
		case []byte:
			*d = string(s)
		default:
			*d = fmt.Sprint(src)
		}
		return nil
	case *[]byte:
		switch s := src.(type) {
		case []byte:
			*d = s
		case string:
			*d = []byte(s)
		default:
			return fmt.Errorf("cannot scan %T into *[]byte", src)
		}
		return nil
	case *bool:
		switch s := src.(type) {
		case bool:
			*d = s
		case int64:
			*d = s != 0
		default:
			return fmt.Errorf("cannot scan %T into *bool", src)
		}
		return nil
	case *time.Time:
		if s, ok := src.(time.Time); ok {
			*d = s
			return nil
		}
		return fmt.Errorf("cannot scan %T into *time.Time", src)
	}
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return fmt.Errorf("destination %T is not a pointer", dest)
	}
	sv := reflect.ValueOf(src)
	elem := dv.Elem()
	switch {
	case sv.Type().AssignableTo(elem.Type()):
		elem.Set(sv)
	case sv.Type().ConvertibleTo(elem.Type()):
		elem.Set(sv.Convert(elem.Type()))
	default:
		return fmt.Errorf("cannot scan %T into %s", src, elem.Type())
	}
	return nil
}
