package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ColumnType is the logical type of a column. It drives value
// normalization when rows come back from the driver, since drivers
// surface most values as int64, float64, []byte or string.
type ColumnType int

// Supported column types.
const (
	TypeBool ColumnType = iota
	TypeInt
	TypeBigInt
	TypeFloat
	TypeDouble
	TypeDecimal
	TypeString
	TypeText
	TypeBytes
	TypeTime
	TypeUUID
	TypeJSON
)

var typeNames = [...]string{
	TypeBool:    "bool",
	TypeInt:     "int",
	TypeBigInt:  "bigint",
	TypeFloat:   "float",
	TypeDouble:  "double",
	TypeDecimal: "decimal",
	TypeString:  "string",
	TypeText:    "text",
	TypeBytes:   "bytes",
	TypeTime:    "time",
	TypeUUID:    "uuid",
	TypeJSON:    "json",
}

// String returns the type name.
func (t ColumnType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "invalid"
}

// ConvertValue normalizes a raw driver value into the canonical Go type
// for this column. NULL passes through as nil.
func (t ColumnType) ConvertValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case TypeBool:
		switch v := v.(type) {
		case bool:
			return v, nil
		case int64:
			return v != 0, nil
		}
	case TypeInt, TypeBigInt:
		switch v := v.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case []byte:
			return strconv.ParseInt(string(v), 10, 64)
		}
	case TypeFloat, TypeDouble:
		switch v := v.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case []byte:
			return strconv.ParseFloat(string(v), 64)
		}
	case TypeDecimal:
		switch v := v.(type) {
		case decimal.Decimal:
			return v, nil
		case string:
			return decimal.NewFromString(v)
		case []byte:
			return decimal.NewFromString(string(v))
		case float64:
			return decimal.NewFromFloat(v), nil
		case int64:
			return decimal.NewFromInt(v), nil
		}
	case TypeString, TypeText:
		switch v := v.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		}
	case TypeBytes:
		switch v := v.(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		}
	case TypeTime:
		switch v := v.(type) {
		case time.Time:
			return v, nil
		case string:
			return parseTime(v)
		case []byte:
			return parseTime(string(v))
		}
	case TypeUUID:
		switch v := v.(type) {
		case uuid.UUID:
			return v, nil
		case string:
			return uuid.Parse(v)
		case []byte:
			if len(v) == 16 {
				return uuid.FromBytes(v)
			}
			return uuid.Parse(string(v))
		}
	case TypeJSON:
		switch v := v.(type) {
		case json.RawMessage:
			return v, nil
		case []byte:
			return json.RawMessage(v), nil
		case string:
			return json.RawMessage(v), nil
		}
	}
	return nil, fmt.Errorf("entity: cannot convert %T to %s", v, t)
}

// timeLayouts are tried in order when a driver returns time as text
// (SQLite does).
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("entity: cannot parse time %q", s)
}
