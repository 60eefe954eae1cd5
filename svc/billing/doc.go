// Package billing exposes the HTTP ingress for billing provider webhooks.
//
// Mount the handler on the application's router:
//
//	r := chi.NewRouter()
//	r.Mount("/", billingsvc.NewHandler(processor).Handle())
//
// The response codes follow the provider acknowledgement contract: 200 for
// processed or duplicate deliveries, 400 for permanently unacceptable ones
// (bad signature, malformed payload), and 500 for transient failures the
// provider should redeliver.
package billing
