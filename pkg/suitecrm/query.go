package suitecrm

import (
	"net/url"
	"strconv"
	"strings"
)

// IDField is the attribute name SuiteCRM uses for record identifiers.
const IDField = "id"

// Filter is a single equality condition.
type Filter struct {
	Field string
	Value string
}

// Query describes a module lookup. Only equality filters are supported; they
// are combined with AND. Sort is a single field and is always descending.
type Query struct {
	Fields     []string
	Sort       string
	Filters    []Filter
	PageNumber int
	PageSize   int
}

// NewQuery creates an empty query.
func NewQuery() *Query {
	return &Query{}
}

// ByID creates a query matching a single record id.
func ByID(id string) *Query {
	return NewQuery().Where(IDField, id)
}

// Where adds an equality filter.
func (q *Query) Where(field, value string) *Query {
	q.Filters = append(q.Filters, Filter{Field: field, Value: value})

	return q
}

// WithFields limits the attributes returned for each record.
func (q *Query) WithFields(fields ...string) *Query {
	q.Fields = append(q.Fields, fields...)

	return q
}

// SortBy sorts the result descending by field.
func (q *Query) SortBy(field string) *Query {
	q.Sort = field

	return q
}

// WithPage requests a specific page.
func (q *Query) WithPage(number, size int) *Query {
	q.PageNumber = number
	q.PageSize = size

	return q
}

// SingleID returns the id when the query is a plain lookup by one id with no
// field selection, sorting or paging.
func (q *Query) SingleID() (string, bool) {
	if q == nil || len(q.Filters) != 1 || len(q.Fields) > 0 || q.Sort != "" || q.PageNumber > 0 || q.PageSize > 0 {
		return "", false
	}

	if q.Filters[0].Field != IDField || q.Filters[0].Value == "" {
		return "", false
	}

	return q.Filters[0].Value, true
}

// ToValues serializes the query to SuiteCRM query parameters for module.
func (q *Query) ToValues(module string) url.Values {
	values := url.Values{}
	if q == nil {
		return values
	}

	if len(q.Fields) > 0 {
		values.Set("fields["+module+"]", strings.Join(q.Fields, ","))
	}

	for _, filter := range q.Filters {
		values.Add("filter["+filter.Field+"][eq]", filter.Value)
	}

	if len(q.Filters) > 1 {
		values.Set("filter[operator]", "and")
	}

	if q.Sort != "" {
		values.Set("sort", "-"+q.Sort)
	}

	if q.PageNumber > 0 {
		values.Set("page[number]", strconv.Itoa(q.PageNumber))
	}

	if q.PageSize > 0 {
		values.Set("page[size]", strconv.Itoa(q.PageSize))
	}

	return values
}
