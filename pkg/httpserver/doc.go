// Package httpserver hosts the webhook ingress: an http.Server wrapper with
// environment-driven timeouts, SIGINT/SIGTERM graceful shutdown, and a
// healthcheck endpoint aggregating dependency probes.
package httpserver
