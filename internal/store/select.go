package store

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/jward/lineage/internal/fault"
)

// Row is one solution of a pattern query: variable name to bound term.
// Variables left unbound by an optional group are absent.
type Row map[string]Term

// Get returns the binding for name or a BindingNotFound error.
func (r Row) Get(name string) (Term, error) {
	t, ok := r[name]
	if !ok {
		return Term{}, fault.New(fault.BindingNotFound, "no binding for %q", name)
	}
	return t, nil
}

// Lookup returns the binding for name and whether it is bound.
func (r Row) Lookup(name string) (Term, bool) {
	t, ok := r[name]
	return t, ok
}

// Names returns the bound variable names in sorted order.
func (r Row) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// key renders the projected bindings for deduplication.
func (r Row) key(vars []string) string {
	var b strings.Builder
	for _, v := range vars {
		if t, ok := r[v]; ok {
			b.WriteString(t.encode())
		}
		b.WriteByte(0)
	}
	return b.String()
}

// Select runs a pattern query and returns its rows.
func (s *Store) Select(ctx context.Context, q *Query) ([]Row, error) {
	c, err := compile(q, false)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, c.sql, c.args...)
	if err != nil {
		return nil, fault.Wrap(fault.GraphQueryFailed, err, "select")
	}
	defer rows.Close()

	var (
		result []Row
		seen   map[string]bool
	)
	if q.Distinct {
		seen = make(map[string]bool)
	}
	values := make([]sql.NullString, len(c.vars))
	ptrs := make([]any, len(c.vars))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fault.Wrap(fault.GraphQueryFailed, err, "scan row")
		}
		row := make(Row, len(c.vars))
		for i, name := range c.vars {
			if !values[i].Valid {
				continue
			}
			t, err := decodeTerm(values[i].String)
			if err != nil {
				return nil, fault.Wrap(fault.InternalContract, err, "decode %q", name)
			}
			row[name] = t
		}
		if seen != nil {
			k := row.key(c.vars)
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		result = append(result, row)
		if q.Distinct && q.Limit > 0 && len(result) == q.Limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Wrap(fault.GraphQueryFailed, err, "rows")
	}
	return result, nil
}

// Ask reports whether the pattern has at least one solution.
func (s *Store) Ask(ctx context.Context, q *Query) (bool, error) {
	c, err := compile(q, true)
	if err != nil {
		return false, err
	}
	var one int
	err = s.db.QueryRowContext(ctx, c.sql, c.args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fault.Wrap(fault.GraphQueryFailed, err, "ask")
	}
	return true, nil
}
