package store

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jward/lineage/internal/fault"
)

// Node is one position of a triple pattern: either a variable or a fixed term.
type Node struct {
	variable string
	term     Term
}

// Var returns a variable node. Names must match [A-Za-z_][A-Za-z0-9_]*.
func Var(name string) Node { return Node{variable: name} }

// Fixed returns a node matching exactly t.
func Fixed(t Term) Node { return Node{term: t} }

// IRINode and LiteralNode are shorthands for Fixed(IRI(..)) and Fixed(Literal(..)).
func IRINode(iri string) Node     { return Fixed(IRI(iri)) }
func LiteralNode(lex string) Node { return Fixed(Literal(lex)) }

func (n Node) IsVar() bool  { return n.variable != "" }
func (n Node) Name() string { return n.variable }

// Pattern is a triple pattern.
type Pattern struct {
	Subject, Predicate, Object Node
}

// P builds a Pattern.
func P(s, p, o Node) Pattern { return Pattern{Subject: s, Predicate: p, Object: o} }

// Filter drops rows where variable Left equals Right. An unbound Left drops
// the row as well.
type Filter struct {
	Left  string
	Right Node
}

// NotEqual builds a Filter.
func NotEqual(left string, right Node) Filter { return Filter{Left: left, Right: right} }

// Group is a set of patterns that must match together. As an optional group
// it contributes bindings when it matches and leaves its variables unbound
// when it does not.
type Group struct {
	Patterns []Pattern
	Filters  []Filter
}

// Query is a basic graph pattern with optional groups.
type Query struct {
	Where    []Pattern
	Optional []Group
	Filters  []Filter

	// Select lists the projected variables; empty selects every variable.
	Select []string

	// Distinct keeps the first row for each projected binding tuple.
	Distinct bool

	// OrderBy sorts by the listed variables. Without it rows follow the
	// load order of the facts matched by Where.
	OrderBy []string

	// Limit caps the number of rows returned; zero means no cap.
	Limit int
}

var varName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// compiled is the SQL form of a Query.
type compiled struct {
	sql  string
	args []any
	vars []string // projected variable names, in column order
}

// compiler builds the FROM/WHERE of one group. Variables map to the SQL
// column expression of their first occurrence.
type compiler struct {
	prefix string
	tables []string
	joins  []string
	where  []string
	args   []any // WHERE args
	jargs  []any // JOIN subquery args, which precede WHERE args in the SQL
	bound  map[string]string
	order  []string // var names in order of first binding
	ids    []string // triple id columns of required patterns
}

func newCompiler(prefix string) *compiler {
	return &compiler{prefix: prefix, bound: make(map[string]string)}
}

var columns = [3]string{"subject", "predicate", "object"}

func (c *compiler) bind(name, col string) {
	if _, ok := c.bound[name]; ok {
		return
	}
	c.bound[name] = col
	c.order = append(c.order, name)
}

func (c *compiler) addPatterns(patterns []Pattern) error {
	for _, p := range patterns {
		alias := fmt.Sprintf("%st%d", c.prefix, len(c.tables))
		c.tables = append(c.tables, "triples "+alias)
		c.ids = append(c.ids, alias+".id")
		for i, n := range [3]Node{p.Subject, p.Predicate, p.Object} {
			col := alias + "." + columns[i]
			if !n.IsVar() {
				if n.term.Kind == 0 {
					return fault.New(fault.GraphQueryFailed, "pattern position %s has neither variable nor term", columns[i])
				}
				c.where = append(c.where, col+" = ?")
				c.args = append(c.args, n.term.encode())
				continue
			}
			if !varName.MatchString(n.variable) {
				return fault.New(fault.GraphQueryFailed, "invalid variable name %q", n.variable)
			}
			if prev, ok := c.bound[n.variable]; ok {
				c.where = append(c.where, col+" = "+prev)
				continue
			}
			c.bind(n.variable, col)
		}
	}
	return nil
}

func (c *compiler) addFilters(filters []Filter) error {
	for _, f := range filters {
		left, ok := c.bound[f.Left]
		if !ok {
			return fault.New(fault.GraphQueryFailed, "filter on unbound variable %q", f.Left)
		}
		if f.Right.IsVar() {
			right, ok := c.bound[f.Right.variable]
			if !ok {
				return fault.New(fault.GraphQueryFailed, "filter on unbound variable %q", f.Right.variable)
			}
			c.where = append(c.where, left+" <> "+right)
			continue
		}
		c.where = append(c.where, left+" <> ?")
		c.args = append(c.args, f.Right.term.encode())
	}
	return nil
}

// addOptional left-joins g as a subquery, correlated on variables already
// bound by the enclosing query.
func (c *compiler) addOptional(idx int, g Group) error {
	if len(g.Patterns) == 0 {
		return fault.New(fault.GraphQueryFailed, "optional group %d has no patterns", idx)
	}
	alias := fmt.Sprintf("o%d", idx)
	sub := newCompiler(alias + "_")
	if err := sub.addPatterns(g.Patterns); err != nil {
		return err
	}
	if err := sub.addFilters(g.Filters); err != nil {
		return err
	}

	subCols := make([]string, 0, len(sub.order))
	for _, name := range sub.order {
		subCols = append(subCols, sub.bound[name]+" AS v_"+name)
	}
	subSQL := "SELECT " + strings.Join(subCols, ", ") + " FROM " + strings.Join(sub.tables, ", ")
	if len(sub.where) > 0 {
		subSQL += " WHERE " + strings.Join(sub.where, " AND ")
	}

	var on []string
	for _, name := range sub.order {
		col := alias + ".v_" + name
		if outer, ok := c.bound[name]; ok {
			on = append(on, col+" = "+outer)
			continue
		}
		c.bind(name, col)
	}
	if len(on) == 0 {
		on = append(on, "1 = 1")
	}
	c.joins = append(c.joins, "LEFT JOIN ("+subSQL+") "+alias+" ON "+strings.Join(on, " AND "))
	c.jargs = append(c.jargs, sub.args...)
	return nil
}

// compile translates q into one SELECT. ask compiles an existence check.
func compile(q *Query, ask bool) (*compiled, error) {
	if q == nil || len(q.Where) == 0 {
		return nil, fault.New(fault.GraphQueryFailed, "query has no patterns")
	}
	c := newCompiler("")
	if err := c.addPatterns(q.Where); err != nil {
		return nil, err
	}
	for i, g := range q.Optional {
		if err := c.addOptional(i, g); err != nil {
			return nil, err
		}
	}
	if err := c.addFilters(q.Filters); err != nil {
		return nil, err
	}

	from := " FROM " + strings.Join(c.tables, ", ")
	if len(c.joins) > 0 {
		from += " " + strings.Join(c.joins, " ")
	}
	where := ""
	if len(c.where) > 0 {
		where = " WHERE " + strings.Join(c.where, " AND ")
	}
	args := append(append([]any{}, c.jargs...), c.args...)

	if ask {
		return &compiled{sql: "SELECT 1" + from + where + " LIMIT 1", args: args}, nil
	}

	vars := q.Select
	if len(vars) == 0 {
		vars = c.order
	}
	cols := make([]string, 0, len(vars))
	for _, name := range vars {
		col, ok := c.bound[name]
		if !ok {
			return nil, fault.New(fault.GraphQueryFailed, "projected variable %q is not bound", name)
		}
		cols = append(cols, col+" AS v_"+name)
	}

	var order []string
	for _, name := range q.OrderBy {
		col, ok := c.bound[name]
		if !ok {
			return nil, fault.New(fault.GraphQueryFailed, "order variable %q is not bound", name)
		}
		order = append(order, col)
	}
	order = append(order, c.ids...)

	sql := "SELECT " + strings.Join(cols, ", ") + from + where + " ORDER BY " + strings.Join(order, ", ")
	// Distinct rows are deduplicated after ordering, so the limit applies there.
	if q.Limit > 0 && !q.Distinct {
		sql += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	return &compiled{sql: sql, args: args, vars: vars}, nil
}
