// Package api exposes report tasks and scheduled jobs over HTTP. Handlers
// decode and validate requests, call the service or scheduler, and map the
// store error taxonomy onto status codes so internal detail never reaches
// clients. Routing is done by the caller with chi.
package api
