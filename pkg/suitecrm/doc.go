// Package suitecrm provides types, interfaces, and helpers for working with the
// SuiteCRM V8 JSON:API.
//
// # Overview
//
// The suitecrm package defines the domain types (Record, Document, Query) and
// the interfaces for module-oriented clients (ModuleClient, Client). A concrete
// implementation is provided by the crmclient package, which wires
// configuration, transport, authentication, token persistence and the
// per-module record cache. Most consumers should import crmclient to construct
// a client and then interact with the interfaces exposed here.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/suitecrm-client/pkg/crmclient"
//	  "github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := crmclient.New(ctx, &suitecrm.Config{
//	    APIEndpoint:  "https://crm.example.com/Api/V8",
//	    ClientID:     "client-id",
//	    ClientSecret: "client-secret",
//	    Cache:        suitecrm.CacheConfig{Enabled: true},
//	  })
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close(ctx)
//
//	  acme, err := cli.Accounts().Create(ctx, map[string]interface{}{"name": "Acme"})
//	  if err != nil { log.Fatal(err) }
//	  _ = acme
//	}
//
// # Queries
//
// Use Query to express the filters SuiteCRM supports: equality filters
// combined with AND, an optional field list, and a single descending sort
// field. The query is serialized to the wire format only when a request is
// sent.
//
//	res, err := cli.Contacts().Get(ctx, suitecrm.NewQuery().
//	  Where("last_name", "Smith").
//	  WithFields("first_name", "last_name").
//	  SortBy("date_entered"))
//
// # Caching
//
// Every module client owns a small TTL cache keyed by record id. Lookups by a
// single id are served from it while the entry is fresh; everything else goes
// to the network and refreshes the cache on the way back.
//
// # Errors
//
// Authentication failures are reported as *AuthError and are terminal for the
// session. Backend database failures are reported as *BackendError. Any other
// HTTP error is returned as a Document whose StatusCode is set, so callers
// must check the shape of what they get back.
package suitecrm
