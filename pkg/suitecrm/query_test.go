package suitecrm_test

import (
	"net/url"
	"testing"

	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
	"github.com/stretchr/testify/assert"
)

//nolint:funlen // Test functions can be longer for detailed testing
func TestQuery_ToValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		query    *suitecrm.Query
		expected url.Values
	}{
		{
			name:     "nil query",
			query:    nil,
			expected: url.Values{},
		},
		{
			name:     "empty query",
			query:    suitecrm.NewQuery(),
			expected: url.Values{},
		},
		{
			name:  "single filter",
			query: suitecrm.NewQuery().Where("name", "Acme"),
			expected: url.Values{
				"filter[name][eq]": []string{"Acme"},
			},
		},
		{
			name:  "multiple filters are combined with and",
			query: suitecrm.NewQuery().Where("first_name", "Jane").Where("last_name", "Doe"),
			expected: url.Values{
				"filter[first_name][eq]": []string{"Jane"},
				"filter[last_name][eq]":  []string{"Doe"},
				"filter[operator]":       []string{"and"},
			},
		},
		{
			name:  "fields are scoped to the module",
			query: suitecrm.NewQuery().WithFields("name", "industry"),
			expected: url.Values{
				"fields[Accounts]": []string{"name,industry"},
			},
		},
		{
			name:  "sort is descending",
			query: suitecrm.NewQuery().SortBy("date_entered"),
			expected: url.Values{
				"sort": []string{"-date_entered"},
			},
		},
		{
			name:  "paging",
			query: suitecrm.NewQuery().WithPage(3, 20),
			expected: url.Values{
				"page[number]": []string{"3"},
				"page[size]":   []string{"20"},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.query.ToValues("Accounts"))
		})
	}
}

func TestQuery_SingleID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		query  *suitecrm.Query
		wantID string
		wantOK bool
	}{
		{name: "by id", query: suitecrm.ByID("abc"), wantID: "abc", wantOK: true},
		{name: "nil", query: nil},
		{name: "empty id", query: suitecrm.ByID("")},
		{name: "other field", query: suitecrm.NewQuery().Where("name", "abc")},
		{name: "two filters", query: suitecrm.ByID("abc").Where("name", "Acme")},
		{name: "with fields", query: suitecrm.ByID("abc").WithFields("name")},
		{name: "with sort", query: suitecrm.ByID("abc").SortBy("name")},
		{name: "with page", query: suitecrm.ByID("abc").WithPage(1, 1)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, ok := tt.query.SingleID()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}
