/*
Package api implements the JSON-over-HTTP transport for the game state
engine: a fixed table of routes backed by one *instance.Registry,
using Go's enhanced http.ServeMux for path parameters instead of a
third-party router.

	reg, _ := instance.New(...)
	srv := api.NewServer(reg, false)
	log.Fatal(srv.Start(":8080"))

Every request passes through withMiddleware, which stamps a
google/uuid request id, records Prometheus request counters and
latency histograms, and emits one structured zerolog line per request.
Authentication is a bare bearer token read from the Authorization
header; the registry/processor/auth layers resolve it against either
the process-wide adminApiKey or a per-instance actor table.
*/
package api
