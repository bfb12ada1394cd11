package client_test

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeCRM is a minimal SuiteCRM V8 server holding one module's records.
type fakeCRM struct {
	*httptest.Server

	t        *testing.T
	module   string
	records  map[string]map[string]interface{}
	tokens   int
	requests []string

	// acceptToken, when set, is the only bearer token the API accepts.
	acceptToken string
	// deleteStatus overrides the status of DELETE requests.
	deleteStatus int
}

func newFakeCRM(t *testing.T, module string) *fakeCRM {
	t.Helper()

	crm := &fakeCRM{
		t:       t,
		module:  module,
		records: map[string]map[string]interface{}{},
	}
	crm.Server = httptest.NewServer(http.HandlerFunc(crm.handle))
	t.Cleanup(crm.Close)

	return crm
}

func (f *fakeCRM) APIEndpoint() string {
	return f.URL + "/Api/V8"
}

func (f *fakeCRM) seed(id, name string) {
	f.records[id] = map[string]interface{}{"name": name}
}

// count returns how many API requests matched method and path prefix.
func (f *fakeCRM) count(method, pathPrefix string) int {
	n := 0

	for _, request := range f.requests {
		if strings.HasPrefix(request, method+" "+pathPrefix) {
			n++
		}
	}

	return n
}

func (f *fakeCRM) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/Api/access_token" {
		f.tokens++

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "token-" + strconv.Itoa(f.tokens),
			"token_type":   "Bearer",
			"expires_in":   3600,
		})

		return
	}

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	if f.acceptToken != "" && r.Header.Get("Authorization") != "Bearer "+f.acceptToken {
		w.WriteHeader(http.StatusUnauthorized)

		return
	}

	modulePath := "/Api/V8/module/" + f.module

	switch {
	case r.URL.Path == "/Api/V8/logout" && r.Method == http.MethodPost:
		w.WriteHeader(http.StatusOK)
	case r.URL.Path == "/Api/V8/module" && (r.Method == http.MethodPost || r.Method == http.MethodPatch):
		f.upsert(w, r)
	case r.URL.Path == modulePath && r.Method == http.MethodGet:
		f.list(w, r)
	case strings.HasPrefix(r.URL.Path, modulePath+"/") && r.Method == http.MethodDelete:
		f.remove(w, strings.TrimPrefix(r.URL.Path, modulePath+"/"))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"errors":{"status":404,"title":"Not Found"}}`)
	}
}

func (f *fakeCRM) record(id string) map[string]interface{} {
	return map[string]interface{}{
		"type":       f.module,
		"id":         id,
		"attributes": f.records[id],
	}
}

func (f *fakeCRM) upsert(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data struct {
			Type       string                 `json:"type"`
			ID         string                 `json:"id"`
			Attributes map[string]interface{} `json:"attributes"`
		} `json:"data"`
	}

	err := json.NewDecoder(r.Body).Decode(&body)
	assert.NoError(f.t, err)
	assert.Equal(f.t, f.module, body.Data.Type)
	assert.NotEmpty(f.t, body.Data.ID)

	attributes, ok := f.records[body.Data.ID]
	if !ok {
		attributes = map[string]interface{}{}
		f.records[body.Data.ID] = attributes
	}

	for key, value := range body.Data.Attributes {
		attributes[key] = value
	}

	if r.Method == http.MethodPost {
		w.WriteHeader(http.StatusCreated)
	}

	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": f.record(body.Data.ID)})
}

func (f *fakeCRM) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	ids := make([]string, 0, len(f.records))
	for id := range f.records {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	if id := query.Get("filter[id][eq]"); id != "" {
		ids = nil

		if _, ok := f.records[id]; ok {
			ids = []string{id}
		}
	}

	size := len(ids)
	if raw := query.Get("page[size]"); raw != "" {
		size, _ = strconv.Atoi(raw)
	}

	number := 1
	if raw := query.Get("page[number]"); raw != "" {
		number, _ = strconv.Atoi(raw)
	}

	totalPages := 0
	if size > 0 {
		totalPages = int(math.Ceil(float64(len(ids)) / float64(size)))
	}

	data := []interface{}{}

	if size > 0 {
		start := min((number-1)*size, len(ids))
		end := min(start+size, len(ids))

		for _, id := range ids[start:end] {
			data = append(data, f.record(id))
		}
	}

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"meta": map[string]interface{}{"total-pages": totalPages},
		"data": data,
	})
}

func (f *fakeCRM) remove(w http.ResponseWriter, id string) {
	if f.deleteStatus != 0 {
		w.WriteHeader(f.deleteStatus)
		_, _ = io.WriteString(w, `{"errors":{"detail":"Database failure. Please refer to the suitecrm.log"}}`)

		return
	}

	delete(f.records, id)

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"meta": map[string]interface{}{"message": "Record with id " + id + " is deleted"},
	})
}
