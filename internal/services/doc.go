// Package services defines the shared error taxonomy consumed by the state
// machine, the importer, and the HTTP layer.
//
// Sentinel markers (authentication, validation, not-found, forbidden) are
// attached with Wrap so the API surface can map failures to status codes
// without string matching. Queue retry classification lives in the queue
// package; these markers cover everything that surfaces over HTTP.
package services
