package sql

// Typed field helpers bind a column name to a Go type once, so query
// call sites get type-checked predicate values instead of raw any.
//
// Usage:
//
//	var (
//		Email = sql.StringField("email")
//		Age   = sql.IntField("age")
//	)
//	sel.Where(Email.Contains("@gmail")).Where(Age.GTE(18))

// StringField is a string column.
type StringField string

// Name returns the column name.
func (f StringField) Name() string { return string(f) }

// EQ returns a field = value predicate.
func (f StringField) EQ(v string) *Predicate { return EQ(string(f), v) }

// NEQ returns a field <> value predicate.
func (f StringField) NEQ(v string) *Predicate { return NEQ(string(f), v) }

// In returns a field IN (values...) predicate.
func (f StringField) In(vs ...string) *Predicate { return In(string(f), anySlice(vs)...) }

// NotIn returns a field NOT IN (values...) predicate.
func (f StringField) NotIn(vs ...string) *Predicate { return NotIn(string(f), anySlice(vs)...) }

// GT returns a field > value predicate.
func (f StringField) GT(v string) *Predicate { return GT(string(f), v) }

// GTE returns a field >= value predicate.
func (f StringField) GTE(v string) *Predicate { return GTE(string(f), v) }

// LT returns a field < value predicate.
func (f StringField) LT(v string) *Predicate { return LT(string(f), v) }

// LTE returns a field <= value predicate.
func (f StringField) LTE(v string) *Predicate { return LTE(string(f), v) }

// Contains returns a predicate matching values containing the substring.
func (f StringField) Contains(v string) *Predicate { return Contains(string(f), v) }

// ContainsFold returns a case-insensitive Contains predicate.
func (f StringField) ContainsFold(v string) *Predicate { return ContainsFold(string(f), v) }

// HasPrefix returns a predicate matching values with the given prefix.
func (f StringField) HasPrefix(v string) *Predicate { return HasPrefix(string(f), v) }

// HasSuffix returns a predicate matching values with the given suffix.
func (f StringField) HasSuffix(v string) *Predicate { return HasSuffix(string(f), v) }

// EqualFold returns a case-insensitive equality predicate.
func (f StringField) EqualFold(v string) *Predicate { return EqualFold(string(f), v) }

// IsNull returns a field IS NULL predicate.
func (f StringField) IsNull() *Predicate { return IsNull(string(f)) }

// NotNull returns a field IS NOT NULL predicate.
func (f StringField) NotNull() *Predicate { return NotNull(string(f)) }

// NumericField is a column holding any ordered numeric type.
type NumericField[T int | int64 | float64] string

// IntField is a NumericField over int.
func IntField(name string) NumericField[int] { return NumericField[int](name) }

// Int64Field is a NumericField over int64.
func Int64Field(name string) NumericField[int64] { return NumericField[int64](name) }

// Float64Field is a NumericField over float64.
func Float64Field(name string) NumericField[float64] { return NumericField[float64](name) }

// Name returns the column name.
func (f NumericField[T]) Name() string { return string(f) }

// EQ returns a field = value predicate.
func (f NumericField[T]) EQ(v T) *Predicate { return EQ(string(f), v) }

// NEQ returns a field <> value predicate.
func (f NumericField[T]) NEQ(v T) *Predicate { return NEQ(string(f), v) }

// In returns a field IN (values...) predicate.
func (f NumericField[T]) In(vs ...T) *Predicate { return In(string(f), anySlice(vs)...) }

// NotIn returns a field NOT IN (values...) predicate.
func (f NumericField[T]) NotIn(vs ...T) *Predicate { return NotIn(string(f), anySlice(vs)...) }

// GT returns a field > value predicate.
func (f NumericField[T]) GT(v T) *Predicate { return GT(string(f), v) }

// GTE returns a field >= value predicate.
func (f NumericField[T]) GTE(v T) *Predicate { return GTE(string(f), v) }

// LT returns a field < value predicate.
func (f NumericField[T]) LT(v T) *Predicate { return LT(string(f), v) }

// LTE returns a field <= value predicate.
func (f NumericField[T]) LTE(v T) *Predicate { return LTE(string(f), v) }

// Between returns a field BETWEEN lo AND hi predicate.
func (f NumericField[T]) Between(lo, hi T) *Predicate { return Between(string(f), lo, hi) }

// IsNull returns a field IS NULL predicate.
func (f NumericField[T]) IsNull() *Predicate { return IsNull(string(f)) }

// NotNull returns a field IS NOT NULL predicate.
func (f NumericField[T]) NotNull() *Predicate { return NotNull(string(f)) }

// BoolField is a boolean column.
type BoolField string

// Name returns the column name.
func (f BoolField) Name() string { return string(f) }

// EQ returns a field = value predicate.
func (f BoolField) EQ(v bool) *Predicate { return EQ(string(f), v) }

// IsTrue returns a field = TRUE predicate.
func (f BoolField) IsTrue() *Predicate { return EQ(string(f), true) }

// IsFalse returns a field = FALSE predicate.
func (f BoolField) IsFalse() *Predicate { return EQ(string(f), false) }

// IsNull returns a field IS NULL predicate.
func (f BoolField) IsNull() *Predicate { return IsNull(string(f)) }

// NotNull returns a field IS NOT NULL predicate.
func (f BoolField) NotNull() *Predicate { return NotNull(string(f)) }

// ValueField is a column holding an arbitrary comparable driver value
// (time.Time, uuid.UUID, decimal.Decimal, custom Valuers).
type ValueField[T any] string

// TimeField is a ValueField commonly instantiated with time.Time.
func TimeField[T any](name string) ValueField[T] { return ValueField[T](name) }

// Field returns a ValueField over the given value type.
func Field[T any](name string) ValueField[T] { return ValueField[T](name) }

// Name returns the column name.
func (f ValueField[T]) Name() string { return string(f) }

// EQ returns a field = value predicate.
func (f ValueField[T]) EQ(v T) *Predicate { return EQ(string(f), v) }

// NEQ returns a field <> value predicate.
func (f ValueField[T]) NEQ(v T) *Predicate { return NEQ(string(f), v) }

// In returns a field IN (values...) predicate.
func (f ValueField[T]) In(vs ...T) *Predicate { return In(string(f), anySlice(vs)...) }

// NotIn returns a field NOT IN (values...) predicate.
func (f ValueField[T]) NotIn(vs ...T) *Predicate { return NotIn(string(f), anySlice(vs)...) }

// GT returns a field > value predicate.
func (f ValueField[T]) GT(v T) *Predicate { return GT(string(f), v) }

// GTE returns a field >= value predicate.
func (f ValueField[T]) GTE(v T) *Predicate { return GTE(string(f), v) }

// LT returns a field < value predicate.
func (f ValueField[T]) LT(v T) *Predicate { return LT(string(f), v) }

// LTE returns a field <= value predicate.
func (f ValueField[T]) LTE(v T) *Predicate { return LTE(string(f), v) }

// IsNull returns a field IS NULL predicate.
func (f ValueField[T]) IsNull() *Predicate { return IsNull(string(f)) }

// NotNull returns a field IS NOT NULL predicate.
func (f ValueField[T]) NotNull() *Predicate { return NotNull(string(f)) }

func anySlice[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i := range vs {
		out[i] = vs[i]
	}
	return out
}
