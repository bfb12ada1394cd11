package client

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fivetwenty-io/suitecrm-client/internal/cache"
	"github.com/fivetwenty-io/suitecrm-client/internal/constants"
	"github.com/fivetwenty-io/suitecrm-client/internal/http"
	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
)

// ModuleClient implements suitecrm.ModuleClient for one module.
type ModuleClient struct {
	name       string
	httpClient *http.Client
	cache      *cache.RecordCache
	logger     suitecrm.Logger
}

// NewModuleClient creates a client for the named module with its own record
// cache. Extra cache options are applied after the re-fetch hook.
func NewModuleClient(httpClient *http.Client, name string, cacheConfig suitecrm.CacheConfig, logger suitecrm.Logger, opts ...cache.Option) *ModuleClient {
	client := &ModuleClient{
		name:       name,
		httpClient: httpClient,
		logger:     suitecrm.LoggerOrNop(logger),
	}

	cacheOpts := append([]cache.Option{cache.WithFetcher(client.fetchByID)}, opts...)
	client.cache = cache.New(cacheConfig, cacheOpts...)

	return client
}

// Name implements suitecrm.ModuleClient.Name.
func (c *ModuleClient) Name() string {
	return c.name
}

// Cache returns the module's record cache.
func (c *ModuleClient) Cache() *cache.RecordCache {
	return c.cache
}

// Create implements suitecrm.ModuleClient.Create.
func (c *ModuleClient) Create(ctx context.Context, attributes map[string]interface{}) (*suitecrm.Record, error) {
	if c.name == "" {
		return nil, suitecrm.ErrModuleNameRequired
	}

	body := map[string]interface{}{
		"type":       c.name,
		"id":         uuid.NewString(),
		"attributes": attributes,
	}

	doc, err := c.httpClient.Post(ctx, constants.APIPathModule, body)
	if err != nil {
		return nil, fmt.Errorf("creating %s record: %w", c.name, err)
	}

	return c.singleRecord(c.cache.Put(doc), "creating")
}

// Get implements suitecrm.ModuleClient.Get.
//
// A plain lookup by one id is answered from the cache when the id is cached.
// Every other query goes to the server and its result is cached.
func (c *ModuleClient) Get(ctx context.Context, query *suitecrm.Query) (*suitecrm.Result, error) {
	if c.name == "" {
		return nil, suitecrm.ErrModuleNameRequired
	}

	if id, ok := query.SingleID(); ok {
		result, hit, err := c.cache.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		if hit {
			c.logger.Debug("Record served from cache", map[string]interface{}{
				"module": c.name,
				"id":     id,
			})

			return result, nil
		}
	}

	return c.fetch(ctx, query)
}

// GetByID implements suitecrm.ModuleClient.GetByID.
func (c *ModuleClient) GetByID(ctx context.Context, id string) (*suitecrm.Record, error) {
	if id == "" {
		return nil, suitecrm.ErrRecordIDRequired
	}

	result, err := c.Get(ctx, suitecrm.ByID(id))
	if err != nil {
		return nil, err
	}

	items := result.Items()
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s %s", suitecrm.ErrNoRecords, c.name, id)
	}

	return &items[0], nil
}

// GetAll implements suitecrm.ModuleClient.GetAll. It reads the record count
// from a one-record probe and then walks every page of pageSize records.
func (c *ModuleClient) GetAll(ctx context.Context, pageSize int) ([]suitecrm.Record, error) {
	if c.name == "" {
		return nil, suitecrm.ErrModuleNameRequired
	}

	if pageSize <= 0 {
		pageSize = constants.DefaultPageSize
	}

	probe, err := c.httpClient.Get(ctx, c.modulePath(), suitecrm.NewQuery().WithPage(1, constants.ProbePageSize).ToValues(c.name))
	if err != nil {
		return nil, fmt.Errorf("counting %s records: %w", c.name, err)
	}

	total, ok := probe.TotalPages()
	if !ok {
		return nil, fmt.Errorf("%w: %s response without total-pages (status %d)", suitecrm.ErrUnexpectedResponse, c.name, probe.StatusCode)
	}

	if total < 0 {
		return nil, fmt.Errorf("%w: %s response with negative total-pages %d", suitecrm.ErrUnexpectedResponse, c.name, total)
	}

	pages := int(math.Ceil(float64(total) / float64(pageSize)))

	records := []suitecrm.Record{}

	for page := 1; page <= pages; page++ {
		result, err := c.fetch(ctx, suitecrm.NewQuery().WithPage(page, pageSize))
		if err != nil {
			return nil, fmt.Errorf("listing %s page %d: %w", c.name, page, err)
		}

		records = append(records, result.Items()...)
	}

	return records, nil
}

// Update implements suitecrm.ModuleClient.Update.
func (c *ModuleClient) Update(ctx context.Context, id string, attributes map[string]interface{}) (*suitecrm.Record, error) {
	if id == "" {
		return nil, suitecrm.ErrRecordIDRequired
	}

	body := map[string]interface{}{
		"type":       c.name,
		"id":         id,
		"attributes": attributes,
	}

	doc, err := c.httpClient.Patch(ctx, constants.APIPathModule, body)
	if err != nil {
		return nil, fmt.Errorf("updating %s record: %w", c.name, err)
	}

	return c.singleRecord(c.cache.Put(doc), "updating")
}

// Delete implements suitecrm.ModuleClient.Delete. The cache entry is dropped
// before the request is sent.
func (c *ModuleClient) Delete(ctx context.Context, id string) (*suitecrm.Document, error) {
	if id == "" {
		return nil, suitecrm.ErrRecordIDRequired
	}

	err := c.cache.Invalidate(suitecrm.InvalidateOptions{ID: id})
	if err != nil {
		return nil, err
	}

	doc, err := c.httpClient.Delete(ctx, c.recordPath(id))
	if err != nil {
		return nil, fmt.Errorf("deleting %s record: %w", c.name, err)
	}

	return doc, nil
}

// Fields implements suitecrm.ModuleClient.Fields. The names are taken from
// one sample record and sorted.
func (c *ModuleClient) Fields(ctx context.Context) ([]string, error) {
	result, err := c.fetch(ctx, suitecrm.NewQuery().WithPage(1, constants.ProbePageSize))
	if err != nil {
		return nil, fmt.Errorf("getting %s fields: %w", c.name, err)
	}

	items := result.Items()
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s", suitecrm.ErrNoRecords, c.name)
	}

	fields := make([]string, 0, len(items[0].Attributes))
	for name := range items[0].Attributes {
		fields = append(fields, name)
	}

	sort.Strings(fields)

	return fields, nil
}

// GetRelationship implements suitecrm.ModuleClient.GetRelationship.
func (c *ModuleClient) GetRelationship(ctx context.Context, id, relatedModule string) (*suitecrm.Document, error) {
	if id == "" {
		return nil, suitecrm.ErrRecordIDRequired
	}

	path := c.recordPath(id) + "/relationships/" + strings.ToLower(relatedModule)

	doc, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting %s relationships: %w", c.name, err)
	}

	return doc, nil
}

// CreateRelationship implements suitecrm.ModuleClient.CreateRelationship.
func (c *ModuleClient) CreateRelationship(ctx context.Context, id, relatedModule, relatedID string) (*suitecrm.Document, error) {
	if id == "" || relatedID == "" {
		return nil, suitecrm.ErrRecordIDRequired
	}

	body := map[string]interface{}{
		"type": cases.Title(language.Und).String(relatedModule),
		"id":   relatedID,
	}

	doc, err := c.httpClient.Post(ctx, c.recordPath(id)+"/relationships", body)
	if err != nil {
		return nil, fmt.Errorf("creating %s relationship: %w", c.name, err)
	}

	return doc, nil
}

// DeleteRelationship implements suitecrm.ModuleClient.DeleteRelationship.
func (c *ModuleClient) DeleteRelationship(ctx context.Context, id, relatedModule, relatedID string) (*suitecrm.Document, error) {
	if id == "" || relatedID == "" {
		return nil, suitecrm.ErrRecordIDRequired
	}

	path := c.recordPath(id) + "/relationships/" + strings.ToLower(relatedModule) + "/" + relatedID

	doc, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("deleting %s relationship: %w", c.name, err)
	}

	return doc, nil
}

// InvalidateCache implements suitecrm.ModuleClient.InvalidateCache.
func (c *ModuleClient) InvalidateCache(opts suitecrm.InvalidateOptions) error {
	return c.cache.Invalidate(opts)
}

func (c *ModuleClient) fetch(ctx context.Context, query *suitecrm.Query) (*suitecrm.Result, error) {
	if c.name == "" {
		return nil, suitecrm.ErrModuleNameRequired
	}

	doc, err := c.httpClient.Get(ctx, c.modulePath(), query.ToValues(c.name))
	if err != nil {
		return nil, fmt.Errorf("getting %s records: %w", c.name, err)
	}

	return c.cache.Put(doc), nil
}

func (c *ModuleClient) fetchByID(ctx context.Context, id string) (*suitecrm.Result, error) {
	return c.fetch(ctx, suitecrm.ByID(id))
}

// singleRecord extracts the record from a create or update response.
func (c *ModuleClient) singleRecord(result *suitecrm.Result, action string) (*suitecrm.Record, error) {
	items := result.Items()
	if len(items) > 0 {
		return &items[0], nil
	}

	status := 0
	detail := ""

	if result.Document != nil {
		status = result.Document.StatusCode
		detail = string(result.Document.Errors)
	}

	return nil, fmt.Errorf("%w: %s %s record (status %d) %s", suitecrm.ErrUnexpectedResponse, action, c.name, status, detail)
}

func (c *ModuleClient) modulePath() string {
	return constants.APIPathModule + "/" + c.name
}

func (c *ModuleClient) recordPath(id string) string {
	return c.modulePath() + "/" + id
}
