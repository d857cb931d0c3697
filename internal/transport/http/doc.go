// Package http implements the HTTP handlers for the Promo Pulse API.
// Handlers stay thin: they parse requests, delegate to the service
// layer, and translate service errors into RFC 7807 problem responses.
//
// Each handler exposes a Routes() method returning a chi.Router that the
// application mounts under its API prefix.
package http
