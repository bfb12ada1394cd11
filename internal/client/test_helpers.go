package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/suitecrm-client/internal/cache"
	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
)

// NewTestClient creates a client without a token manager for baseURL.
func NewTestClient(baseURL string, cacheConfig suitecrm.CacheConfig, cacheOpts ...cache.Option) *Client {
	client, _ := NewWithTokenManager(&suitecrm.Config{
		APIEndpoint: baseURL,
		Cache:       cacheConfig,
	}, nil, WithCacheOptions(cacheOpts...))

	return client
}

// TestRelationshipOperation represents a relationship operation test case.
type TestRelationshipOperation struct {
	Name           string
	Module         string
	RecordID       string
	RelatedModule  string
	RelatedID      string
	ExpectedMethod string
	ExpectedPath   string
	ExpectedBody   map[string]string
	Call           func(suitecrm.ModuleClient, context.Context, string, string, string) (*suitecrm.Document, error)
}

// RunRelationshipTests runs a series of relationship operation tests.
func RunRelationshipTests(t *testing.T, tests []TestRelationshipOperation) {
	t.Helper()

	for _, testCase := range tests {
		t.Run(testCase.Name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.ExpectedMethod, request.Method)
				assert.Equal(t, testCase.ExpectedPath, request.URL.Path)

				if testCase.ExpectedBody != nil {
					var body struct {
						Data map[string]string `json:"data"`
					}

					raw, _ := io.ReadAll(request.Body)
					assert.NoError(t, json.Unmarshal(raw, &body))
					assert.Equal(t, testCase.ExpectedBody, body.Data)
				}

				_, _ = io.WriteString(writer, `{"data":[]}`)
			}))
			defer server.Close()

			client := NewTestClient(server.URL+"/Api/V8", suitecrm.CacheConfig{})

			doc, err := testCase.Call(client.Module(testCase.Module), context.Background(), testCase.RecordID, testCase.RelatedModule, testCase.RelatedID)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, doc.StatusCode)
		})
	}
}
