package repository

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

type queryKind int

const (
	queryEqual queryKind = iota
	queryContains
	querySearch
	queryOrderAsc
	queryOrderDesc
	queryLimit
)

// Query is a single predicate of a row listing: a filter, an ordering or a
// limit. Build them with Equal, Contains, Search, OrderAsc, OrderDesc and Limit.
type Query struct {
	kind   queryKind
	column string
	values []string
	limit  int
}

// Equal matches rows whose column equals value.
func Equal(column, value string) Query {
	return Query{kind: queryEqual, column: column, values: []string{value}}
}

// Contains matches rows whose column is one of values. An empty value list
// matches nothing.
func Contains(column string, values ...string) Query {
	return Query{kind: queryContains, column: column, values: values}
}

// Search matches rows whose column contains text, case-insensitively.
func Search(column, text string) Query {
	return Query{kind: querySearch, column: column, values: []string{text}}
}

func OrderAsc(column string) Query  { return Query{kind: queryOrderAsc, column: column} }
func OrderDesc(column string) Query { return Query{kind: queryOrderDesc, column: column} }

// Limit caps the number of returned rows.
func Limit(n int) Query { return Query{kind: queryLimit, limit: n} }

// table is a row table addressed by database (schema) and table id.
type table struct {
	schema  string
	name    string
	columns []string
}

func (t table) qualified() string {
	return pq.QuoteIdentifier(t.schema) + "." + pq.QuoteIdentifier(t.name)
}

func (t table) hasColumn(column string) bool {
	for _, c := range t.columns {
		if c == column {
			return true
		}
	}
	return false
}

func (t table) columnList() string {
	quoted := make([]string, len(t.columns))
	for i, c := range t.columns {
		quoted[i] = pq.QuoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

// buildSelect renders a SELECT for t with the given predicates. Columns are
// checked against the table's column list before any SQL is produced.
func buildSelect(t table, queries []Query) (string, []interface{}, error) {
	var (
		where  []string
		order  []string
		args   []interface{}
		limit  = -1
		nextID = func(v interface{}) string {
			args = append(args, v)
			return fmt.Sprintf("$%d", len(args))
		}
	)

	for _, q := range queries {
		if q.kind != queryLimit && !t.hasColumn(q.column) {
			return "", nil, fmt.Errorf("unknown column %q for table %s", q.column, t.name)
		}
		col := pq.QuoteIdentifier(q.column)

		switch q.kind {
		case queryEqual:
			where = append(where, fmt.Sprintf("%s = %s", col, nextID(q.values[0])))
		case queryContains:
			if len(q.values) == 0 {
				where = append(where, "FALSE")
				continue
			}
			where = append(where, fmt.Sprintf("%s = ANY(%s)", col, nextID(pq.Array(q.values))))
		case querySearch:
			where = append(where, fmt.Sprintf("%s ILIKE %s", col, nextID("%"+escapeLike(q.values[0])+"%")))
		case queryOrderAsc:
			order = append(order, col+" ASC")
		case queryOrderDesc:
			order = append(order, col+" DESC")
		case queryLimit:
			if q.limit < 0 {
				return "", nil, fmt.Errorf("negative limit %d", q.limit)
			}
			limit = q.limit
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", t.columnList(), t.qualified())
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if len(order) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(order, ", "))
	}
	if limit >= 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(nextID(limit))
	}

	return b.String(), args, nil
}

// escapeLike escapes LIKE wildcards so user text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
