package sql

import (
	"strings"

	"github.com/syssam/tidal/dialect"
)

// Predicate is a deferred WHERE/HAVING/ON expression. It renders itself
// into a Builder so placeholder numbering stays correct regardless of
// where the predicate lands in the final statement.
type Predicate struct {
	fn func(*Builder)
}

// P returns a predicate from a raw render function.
func P(fn func(*Builder)) *Predicate {
	return &Predicate{fn: fn}
}

// render writes the predicate into the given builder.
func (p *Predicate) render(b *Builder) { p.fn(b) }

// Query renders the predicate standalone. Placeholders are rendered in
// the MySQL style since no dialect is attached; used mainly in tests.
func (p *Predicate) Query() (string, []any) {
	b := &Builder{}
	p.render(b)
	return b.String(), b.args
}

func binary(column, op string, v any) *Predicate {
	return P(func(b *Builder) {
		b.Ident(column).WriteString(" " + op + " ").Arg(v)
	})
}

// EQ returns a column = value predicate.
func EQ(column string, v any) *Predicate { return binary(column, "=", v) }

// NEQ returns a column <> value predicate.
func NEQ(column string, v any) *Predicate { return binary(column, "<>", v) }

// GT returns a column > value predicate.
func GT(column string, v any) *Predicate { return binary(column, ">", v) }

// GTE returns a column >= value predicate.
func GTE(column string, v any) *Predicate { return binary(column, ">=", v) }

// LT returns a column < value predicate.
func LT(column string, v any) *Predicate { return binary(column, "<", v) }

// LTE returns a column <= value predicate.
func LTE(column string, v any) *Predicate { return binary(column, "<=", v) }

// ColumnsEQ returns a column = column predicate (used in JOIN ... ON).
func ColumnsEQ(c1, c2 string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(c1).WriteString(" = ").Ident(c2)
	})
}

// In returns a column IN (values...) predicate. An empty value list
// renders FALSE, so the predicate matches nothing instead of producing
// invalid SQL.
func In(column string, vs ...any) *Predicate {
	return P(func(b *Builder) {
		if len(vs) == 0 {
			b.WriteString("FALSE")
			return
		}
		b.Ident(column).WriteString(" IN (").Args(vs...).WriteByte(')')
	})
}

// NotIn returns a column NOT IN (values...) predicate. An empty value
// list renders TRUE.
func NotIn(column string, vs ...any) *Predicate {
	return P(func(b *Builder) {
		if len(vs) == 0 {
			b.WriteString("TRUE")
			return
		}
		b.Ident(column).WriteString(" NOT IN (").Args(vs...).WriteByte(')')
	})
}

// InSubquery returns a column IN (SELECT ...) predicate.
func InSubquery(column string, s *Selector) *Predicate {
	return P(func(b *Builder) {
		b.Ident(column).WriteString(" IN (")
		b.join(s)
		b.WriteByte(')')
	})
}

// Between returns a column BETWEEN lo AND hi predicate.
func Between(column string, lo, hi any) *Predicate {
	return P(func(b *Builder) {
		b.Ident(column).WriteString(" BETWEEN ").Arg(lo).WriteString(" AND ").Arg(hi)
	})
}

// IsNull returns a column IS NULL predicate.
func IsNull(column string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(column).WriteString(" IS NULL")
	})
}

// NotNull returns a column IS NOT NULL predicate.
func NotNull(column string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(column).WriteString(" IS NOT NULL")
	})
}

// escapeLike escapes the LIKE wildcards in a literal match fragment.
// Patterns built with it must be rendered with writeLikeEscape, since
// SQLite has no default escape character at all.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return r.Replace(s)
}

// writeLikeEscape appends the explicit ESCAPE clause for escapeLike
// patterns. MySQL string literals consume one level of backslash
// themselves, so it is doubled there.
func writeLikeEscape(b *Builder) {
	if b.dialect == dialect.MySQL {
		b.WriteString(` ESCAPE '\\'`)
	} else {
		b.WriteString(` ESCAPE '\'`)
	}
}

// likeEscaped returns a column LIKE pattern predicate for a pattern
// built from escapeLike fragments.
func likeEscaped(column, pattern string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(column).WriteString(" LIKE ").Arg(pattern)
		writeLikeEscape(b)
	})
}

// Like returns a column LIKE pattern predicate. The pattern is passed
// through unescaped.
func Like(column, pattern string) *Predicate { return binary(column, "LIKE", pattern) }

// Contains returns a predicate matching columns containing the given
// substring.
func Contains(column, substr string) *Predicate {
	return likeEscaped(column, "%"+escapeLike(substr)+"%")
}

// HasPrefix returns a predicate matching columns starting with the
// given prefix.
func HasPrefix(column, prefix string) *Predicate {
	return likeEscaped(column, escapeLike(prefix)+"%")
}

// HasSuffix returns a predicate matching columns ending with the given
// suffix.
func HasSuffix(column, suffix string) *Predicate {
	return likeEscaped(column, "%"+escapeLike(suffix))
}

// ContainsFold returns a case-insensitive Contains predicate.
func ContainsFold(column, substr string) *Predicate {
	return P(func(b *Builder) {
		b.WriteString("LOWER(").Ident(column).WriteString(") LIKE ")
		b.Arg("%" + escapeLike(strings.ToLower(substr)) + "%")
		writeLikeEscape(b)
	})
}

// EqualFold returns a case-insensitive equality predicate.
func EqualFold(column, v string) *Predicate {
	return P(func(b *Builder) {
		b.WriteString("LOWER(").Ident(column).WriteString(") = ").Arg(strings.ToLower(v))
	})
}

// And joins the given predicates with AND. Each operand is
// parenthesized so nested OR trees keep their precedence.
func And(ps ...*Predicate) *Predicate {
	if len(ps) == 1 {
		return ps[0]
	}
	return P(func(b *Builder) {
		for i, p := range ps {
			if i > 0 {
				b.WriteString(" AND ")
			}
			b.WriteByte('(')
			p.render(b)
			b.WriteByte(')')
		}
	})
}

// Or joins the given predicates with OR.
func Or(ps ...*Predicate) *Predicate {
	if len(ps) == 1 {
		return ps[0]
	}
	return P(func(b *Builder) {
		for i, p := range ps {
			if i > 0 {
				b.WriteString(" OR ")
			}
			b.WriteByte('(')
			p.render(b)
			b.WriteByte(')')
		}
	})
}

// Not negates the given predicate.
func Not(p *Predicate) *Predicate {
	return P(func(b *Builder) {
		b.WriteString("NOT (")
		p.render(b)
		b.WriteByte(')')
	})
}

// Expr returns a raw SQL predicate with bound arguments. The fragment
// is written verbatim; "?" placeholders inside it are rewritten for the
// target dialect.
func Expr(fragment string, args ...any) *Predicate {
	return P(func(b *Builder) {
		i := 0
		for _, r := range fragment {
			if r == '?' && i < len(args) {
				b.Arg(args[i])
				i++
				continue
			}
			b.sb.WriteRune(r)
		}
	})
}
