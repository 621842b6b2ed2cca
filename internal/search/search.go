// Package search builds the filter predicates shared by every listing: a
// simple term matched against the searchable columns, and named advanced
// filters addressed by request parameters.
//
// Filter values always come in through Input; the package never looks at the
// HTTP request.
package search

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	sq "github.com/Masterminds/squirrel"
)

const (
	// DefaultPrefix is prepended to every advanced filter name.
	DefaultPrefix = "sf_"

	// DefaultOperator is used by the simple term search.
	DefaultOperator = "ILIKE"
)

// Mutator transforms a raw filter value for a column before it is bound.
// Returning nil drops the constraint for that column.
type Mutator func(value any, like bool) any

// Searchable is implemented by every entity that can be searched.
type Searchable interface {
	// SearchColumns lists the columns matched by the simple term search.
	SearchColumns() []string
}

// Mutating is implemented by entities that transform values per column.
type Mutating interface {
	SearchMutators() map[string]Mutator
}

// AdvancedSearchable is implemented by entities exposing named filters.
type AdvancedSearchable interface {
	SearchSettings() Settings
}

// RelationFunc adds predicates to the related-entity sub-query. q gives
// access to FormatTerm.
type RelationFunc func(sb sq.SelectBuilder, value any, q *Query) sq.SelectBuilder

// Relation describes an EXISTS sub-query against a related table.
type Relation struct {
	// Table is the related table, optionally aliased ("stock_movements sm").
	Table string
	// On joins the related table to the outer query.
	On    string
	Build RelationFunc
}

// HookFunc returns a predicate added at the start or end of the filter group.
// A nil result adds nothing.
type HookFunc func(params url.Values, q *Query) sq.Sqlizer

// Filter is a named advanced filter: either a column comparison or a
// relationship existence check.
type Filter struct {
	Name     string
	Column   string
	Operator string
	Relation *Relation
}

// Column returns a column filter. An empty column defaults to name, an empty
// operator to "LIKE".
func Column(name, column, operator string) Filter {
	if column == "" {
		column = name
	}
	if operator == "" {
		operator = "LIKE"
	}
	return Filter{Name: name, Column: column, Operator: operator}
}

// Relationship returns a filter matching rows that have at least one related
// row satisfying rel.
func Relationship(name string, rel Relation) Filter {
	return Filter{Name: name, Relation: &rel}
}

// Settings configures the advanced search of an entity.
type Settings struct {
	Prefix  string
	Filters []Filter
	Before  HookFunc
	After   HookFunc
}

// Input is the caller supplied search request.
type Input struct {
	// Term is matched against the searchable columns.
	Term string
	// Advanced enables the named filters.
	Advanced bool
	// Params holds the advanced filter values keyed by prefixed name.
	Params url.Values
	// Callback may adjust the query before the predicate is built.
	Callback func(q *Query)
}

// Query holds the resolved search configuration for one call.
type Query struct {
	columns  []string
	mutators map[string]Mutator
	settings Settings
	operator string

	term     string
	advanced bool
	params   url.Values
}

// New resolves the search capabilities of entity for the given input.
func New(entity Searchable, in Input) *Query {
	q := &Query{
		columns:  entity.SearchColumns(),
		mutators: map[string]Mutator{},
		operator: DefaultOperator,
		term:     in.Term,
		advanced: in.Advanced,
		params:   in.Params,
	}

	if m, ok := entity.(Mutating); ok {
		for column, fn := range m.SearchMutators() {
			q.mutators[column] = fn
		}
	}

	if a, ok := entity.(AdvancedSearchable); ok {
		q.settings = a.SearchSettings()
	}
	if q.settings.Prefix == "" {
		q.settings.Prefix = DefaultPrefix
	}

	return q
}

// Apply adds the search predicate for entity to sb. Nothing is added when no
// term or filter value is present.
func Apply(sb sq.SelectBuilder, entity Searchable, in Input) sq.SelectBuilder {
	q := New(entity, in)
	if in.Callback != nil {
		in.Callback(q)
	}

	if pred := q.Predicate(); pred != nil {
		return sb.Where(pred)
	}
	return sb
}

func (q *Query) SetOperator(operator string) { q.operator = operator }

func (q *Query) SetColumns(columns ...string) { q.columns = columns }

func (q *Query) AddMutator(column string, fn Mutator) { q.mutators[column] = fn }

func (q *Query) AddFilter(f Filter) { q.settings.Filters = append(q.settings.Filters, f) }

func (q *Query) SetBefore(fn HookFunc) { q.settings.Before = fn }

func (q *Query) SetAfter(fn HookFunc) { q.settings.After = fn }

// Columns returns the columns matched by the simple term.
func (q *Query) Columns() []string { return q.columns }

// ParamName returns the request parameter addressing the filter name.
func (q *Query) ParamName(name string) string {
	return q.settings.Prefix + capitalize(name)
}

// FormatTerm runs the column mutator, or wraps non-empty strings in
// wildcards when like is set.
func (q *Query) FormatTerm(value any, column string, like bool) any {
	if fn, ok := q.mutators[column]; ok {
		return fn(value, like)
	}

	if s, ok := value.(string); ok && like && s != "" {
		return "%" + s + "%"
	}

	return value
}

// Predicate returns the combined AND group, or nil when it would be empty.
func (q *Query) Predicate() sq.Sqlizer {
	group := sq.And{}

	if q.advanced {
		group = appendHook(group, q.settings.Before, q)
	}

	if pred := q.simplePredicate(); pred != nil {
		group = append(group, pred)
	}

	if q.advanced {
		for _, f := range q.settings.Filters {
			if pred := q.filterPredicate(f); pred != nil {
				group = append(group, pred)
			}
		}
		group = appendHook(group, q.settings.After, q)
	}

	if len(group) == 0 {
		return nil
	}
	return group
}

func (q *Query) simplePredicate() sq.Sqlizer {
	if q.term == "" || len(q.columns) == 0 {
		return nil
	}

	like := IsLike(q.operator)
	or := sq.Or{}
	for _, column := range q.columns {
		value := q.FormatTerm(q.term, column, like)
		if IsBlank(value) {
			continue
		}
		or = append(or, sq.Expr(fmt.Sprintf("%s %s ?", column, q.operator), value))
	}

	if len(or) == 0 {
		return nil
	}
	return or
}

func (q *Query) filterPredicate(f Filter) sq.Sqlizer {
	value := paramValue(q.params[q.ParamName(f.Name)])

	if f.Relation != nil {
		return q.relationPredicate(*f.Relation, value)
	}

	value = q.FormatTerm(value, f.Column, IsLike(f.Operator))
	if IsBlank(value) {
		return nil
	}

	switch v := value.(type) {
	case []string:
		return sq.Eq{f.Column: v}
	case []any:
		return sq.Eq{f.Column: v}
	}

	return sq.Expr(fmt.Sprintf("%s %s ?", f.Column, f.Operator), value)
}

func (q *Query) relationPredicate(rel Relation, value any) sq.Sqlizer {
	if IsBlank(value) {
		return nil
	}

	sub := sq.Select("1").From(rel.Table)
	if rel.On != "" {
		sub = sub.Where(rel.On)
	}
	if rel.Build != nil {
		sub = rel.Build(sub, value, q)
	}

	sql, args, err := sub.ToSql()
	if err != nil {
		return nil
	}

	return sq.Expr("EXISTS ("+sql+")", args...)
}

func appendHook(group sq.And, fn HookFunc, q *Query) sq.And {
	if fn == nil {
		return group
	}
	if pred := fn(q.params, q); pred != nil {
		group = append(group, pred)
	}
	return group
}

// paramValue returns nil, the single value, or all values when repeated.
func paramValue(values []string) any {
	switch len(values) {
	case 0:
		return nil
	case 1:
		return values[0]
	default:
		return values
	}
}

// IsLike reports whether operator is a pattern match operator.
func IsLike(operator string) bool {
	switch strings.ToUpper(strings.TrimSpace(operator)) {
	case "LIKE", "ILIKE", "NOT LIKE", "NOT ILIKE":
		return true
	default:
		return false
	}
}

// IsBlank reports whether value carries no constraint. Numeric zero is not
// blank so filters can match 0.
func IsBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
