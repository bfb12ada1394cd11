// Package crmclient provides the primary entry point for constructing a
// SuiteCRM V8 API client that implements the suitecrm.Client interface.
//
// It layers endpoint normalization, token persistence and session setup on
// top of the interfaces and types defined in the suitecrm package. Most
// applications should import crmclient to build a client, then use the
// returned suitecrm.Client to reach module clients such as Accounts(),
// Contacts() or Module("AOS_Products").
//
// Quick start
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
//
//	  crm, err := crmclient.New(ctx, &suitecrm.Config{
//	    APIEndpoint:  "https://crm.example.com/Api/V8",
//	    ClientID:     "client-id",
//	    ClientSecret: "client-secret",
//	    Cache:        suitecrm.CacheConfig{Enabled: true},
//	  })
//	  if err != nil { log.Fatal(err) }
//	  defer crm.Close(ctx)
//
//	  account, err := crm.Accounts().Create(ctx, map[string]interface{}{"name": "Acme"})
//	  if err != nil { log.Fatal(err) }
//
//	  // Served from the record cache.
//	  _, _ = crm.Accounts().GetByID(ctx, account.ID)
//	}
//
// # Sessions
//
// New reads the token persisted by Config.TokenStore (AccessToken.json in the
// working directory by default) and only contacts the token endpoint when no
// token is stored. Rejected credentials are returned as *suitecrm.AuthError.
//
// # Helpers
//
// NewWithClientCredentials and NewWithCache wrap New with the matching
// configuration.
package crmclient
