// Package http serves a dispatcher over HTTP: dispatch, completion, usage,
// the command list and a server-sent event stream of dispatcher activity.
// The API is described by the embedded OpenAPI document at /openapi.yaml.
package http
