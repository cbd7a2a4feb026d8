package builder

import (
	"fmt"
	"strings"
)

// SQLBuilder helps construct SQL queries dynamically.
// Placeholders are written as "?" and rendered as $1, $2, ... in argument order.
type SQLBuilder struct {
	table       string
	columns     []string
	values      []interface{}
	where       []string
	whereArgs   []interface{}
	conflictCol []string
	updateOnDup []string
	isInsert    bool
	isSelect    bool
}

// NewSQLBuilder creates a new instance of SQLBuilder.
func NewSQLBuilder() *SQLBuilder {
	return &SQLBuilder{}
}

// Select specifies the columns to retrieve.
func (b *SQLBuilder) Select(cols ...string) *SQLBuilder {
	b.isSelect = true
	b.columns = cols
	return b
}

// From specifies the table to select from.
func (b *SQLBuilder) From(table string) *SQLBuilder {
	b.table = table
	return b
}

// Insert specifies the table and columns for insertion.
func (b *SQLBuilder) Insert(table string, cols ...string) *SQLBuilder {
	b.isInsert = true
	b.table = table
	b.columns = cols
	return b
}

// Values specifies the values for insertion.
func (b *SQLBuilder) Values(vals ...interface{}) *SQLBuilder {
	b.values = vals
	return b
}

// OnConflict turns the insert into an upsert on the given key columns.
func (b *SQLBuilder) OnConflict(cols ...string) *SQLBuilder {
	b.conflictCol = cols
	return b
}

// DoUpdateSet lists the columns overwritten from the rejected row on conflict.
func (b *SQLBuilder) DoUpdateSet(cols ...string) *SQLBuilder {
	b.updateOnDup = cols
	return b
}

// Where adds a condition; multiple conditions are combined with AND.
func (b *SQLBuilder) Where(condition string, args ...interface{}) *SQLBuilder {
	b.where = append(b.where, condition)
	b.whereArgs = append(b.whereArgs, args...)
	return b
}

// BuildSafe is Build with a check that placeholders and arguments line up.
func (b *SQLBuilder) BuildSafe() (string, []interface{}, error) {
	if b.isInsert && len(b.values) != len(b.columns) {
		return "", nil, fmt.Errorf("insert into %s: %d columns but %d values", b.table, len(b.columns), len(b.values))
	}
	want := 0
	for _, w := range b.where {
		want += strings.Count(w, "?")
	}
	if want != len(b.whereArgs) {
		return "", nil, fmt.Errorf("placeholder count (%d) does not match argument count (%d)", want, len(b.whereArgs))
	}
	sql, args := b.Build()
	return sql, args, nil
}

// Build constructs the final SQL string and arguments.
func (b *SQLBuilder) Build() (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}
	argIndex := 1

	switch {
	case b.isInsert:
		sb.WriteString("INSERT INTO ")
		sb.WriteString(b.table)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(") VALUES (")
		placeholders := make([]string, len(b.values))
		for i := range b.values {
			placeholders[i] = fmt.Sprintf("$%d", argIndex)
			argIndex++
		}
		sb.WriteString(strings.Join(placeholders, ", "))
		sb.WriteString(")")
		args = append(args, b.values...)

		if len(b.conflictCol) > 0 {
			sb.WriteString(" ON CONFLICT (")
			sb.WriteString(strings.Join(b.conflictCol, ", "))
			sb.WriteString(")")
			if len(b.updateOnDup) == 0 {
				sb.WriteString(" DO NOTHING")
			} else {
				sets := make([]string, len(b.updateOnDup))
				for i, col := range b.updateOnDup {
					sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
				}
				sb.WriteString(" DO UPDATE SET ")
				sb.WriteString(strings.Join(sets, ", "))
			}
		}
		return sb.String(), args
	case b.isSelect:
		sb.WriteString("SELECT ")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(" FROM ")
		sb.WriteString(b.table)
	}

	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		parts := strings.Split(strings.Join(b.where, " AND "), "?")
		for i, part := range parts {
			sb.WriteString(part)
			if i < len(parts)-1 {
				sb.WriteString(fmt.Sprintf("$%d", argIndex))
				argIndex++
			}
		}
		args = append(args, b.whereArgs...)
	}

	return sb.String(), args
}
