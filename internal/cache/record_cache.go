// Package cache holds the per-module record cache.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fivetwenty-io/suitecrm-client/internal/constants"
	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
)

// Entry is a cached record and the time it was fetched.
type Entry struct {
	Record    suitecrm.Record
	FetchedAt time.Time
}

// Fetcher retrieves a record from the server. It is used to replace an
// expired entry and is expected to store its result with Put.
type Fetcher func(ctx context.Context, id string) (*suitecrm.Result, error)

// RecordCache maps record ids to records for one module. Entries are valid
// while now - FetchedAt < TTL and are evicted lazily. It is not safe for
// concurrent use.
type RecordCache struct {
	enabled bool
	ttl     time.Duration
	entries map[string]*Entry
	fetch   Fetcher
	now     func() time.Time
}

// Option configures a RecordCache.
type Option func(*RecordCache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *RecordCache) {
		c.now = now
	}
}

// WithFetcher sets the function used to re-fetch expired records.
func WithFetcher(fetch Fetcher) Option {
	return func(c *RecordCache) {
		c.fetch = fetch
	}
}

// New creates an empty cache. A zero TTL means constants.DefaultCacheTTL.
func New(config suitecrm.CacheConfig, opts ...Option) *RecordCache {
	ttl := config.TTL
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}

	c := &RecordCache{
		enabled: config.Enabled,
		ttl:     ttl,
		entries: make(map[string]*Entry),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Enabled reports whether records are stored.
func (c *RecordCache) Enabled() bool {
	return c.enabled
}

// TTL returns the entry lifetime.
func (c *RecordCache) TTL() time.Duration {
	return c.ttl
}

// Put unwraps a response document and stores the records it carries.
//
// A single record yields a ResultRecord and a non-empty list a ResultList.
// Anything else (no data, null, an empty object or list, or data that does
// not decode as records) is returned unchanged as a ResultPassthrough. Put
// never fails. With caching disabled the unwrapping still happens but nothing
// is stored.
func (c *RecordCache) Put(doc *suitecrm.Document) *suitecrm.Result {
	passthrough := &suitecrm.Result{Kind: suitecrm.ResultPassthrough, Document: doc}

	switch doc.DataKind() {
	case suitecrm.DataObject:
		var record suitecrm.Record

		err := json.Unmarshal(doc.Data, &record)
		if err != nil || record.ID == "" {
			return passthrough
		}

		c.store(record)

		return &suitecrm.Result{Kind: suitecrm.ResultRecord, Record: &record, Document: doc}

	case suitecrm.DataArray:
		var records []suitecrm.Record

		err := json.Unmarshal(doc.Data, &records)
		if err != nil {
			return passthrough
		}

		for _, record := range records {
			c.store(record)
		}

		return &suitecrm.Result{Kind: suitecrm.ResultList, Records: records, Document: doc}

	case suitecrm.DataEmpty, suitecrm.DataMalformed:
		return passthrough

	default:
		return passthrough
	}
}

func (c *RecordCache) store(record suitecrm.Record) {
	if !c.enabled || record.ID == "" {
		return
	}

	c.entries[record.ID] = &Entry{Record: record.Clone(), FetchedAt: c.now()}
}

// Get serves id from the cache. The boolean is false when the caller has to
// go to the server itself: caching is disabled, the id is absent, or the entry
// expired and no Fetcher is set.
//
// An expired entry is evicted and replaced by exactly one live fetch, whose
// result is returned as is.
func (c *RecordCache) Get(ctx context.Context, id string) (*suitecrm.Result, bool, error) {
	if !c.enabled {
		return nil, false, nil
	}

	entry, ok := c.entries[id]
	if !ok {
		return nil, false, nil
	}

	if c.valid(entry) {
		record := entry.Record.Clone()

		return &suitecrm.Result{Kind: suitecrm.ResultRecord, Record: &record}, true, nil
	}

	delete(c.entries, id)

	if c.fetch == nil {
		return nil, false, nil
	}

	result, err := c.fetch(ctx, id)
	if err != nil {
		return nil, false, err
	}

	return result, true, nil
}

// Has reports whether a valid entry exists for id without evicting anything.
func (c *RecordCache) Has(id string) bool {
	if !c.enabled {
		return false
	}

	entry, ok := c.entries[id]

	return ok && c.valid(entry)
}

// Len returns the number of stored entries, expired ones included.
func (c *RecordCache) Len() int {
	return len(c.entries)
}

// Invalidate drops entries. Exactly one of All, ID or Expired may be set; an
// empty options value does nothing.
func (c *RecordCache) Invalidate(opts suitecrm.InvalidateOptions) error {
	modes := 0

	if opts.All {
		modes++
	}

	if opts.ID != "" {
		modes++
	}

	if opts.Expired {
		modes++
	}

	if modes > 1 {
		return suitecrm.ErrInvalidateModeConflict
	}

	switch {
	case opts.All:
		c.entries = make(map[string]*Entry)
	case opts.ID != "":
		delete(c.entries, opts.ID)
	case opts.Expired:
		for id, entry := range c.entries {
			if !c.valid(entry) {
				delete(c.entries, id)
			}
		}
	}

	return nil
}

func (c *RecordCache) valid(entry *Entry) bool {
	return c.now().Sub(entry.FetchedAt) < c.ttl
}
