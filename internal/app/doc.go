// Package app assembles the Promo Pulse server: configuration, logging,
// OpenTelemetry providers, the WebSocket hub, the service layer and the
// chi router are wired here in dependency order.
//
// The Application container owns the HTTP server lifecycle. Run blocks
// until an interrupt signal arrives and then shuts the server, the hub
// and the telemetry providers down gracefully.
package app
