// Package server exposes the evaluator, the tree library and the journal
// over HTTP.
//
// Routes:
//
//	POST /v1/evaluate        evaluate a library tree or an inline operation
//	POST /v1/lint            validate an inline operation without running it
//	GET  /v1/trees           list library trees
//	GET  /v1/trees/{name}    fetch one tree with its encoded operation
//	GET  /v1/journal         query journal records
//	GET  /v1/journal/{id}    fetch one journal record
//	GET  /healthz            liveness
//	GET  /readyz             readiness
//	GET  /version            build information
//	GET  <metrics path>      Prometheus exposition
//
// Evaluation failures are data, not HTTP errors: both arms of the result are
// returned with 200 and the outcome is named in the body.
//
// When configured, /v1 requires an API key (401 otherwise) and is rate
// limited per client with a token bucket (429 with Retry-After). TLS
// certificates are reloaded from disk when they change.
package server
