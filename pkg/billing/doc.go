// Package billing abstracts the payment provider behind the narrow Provider
// interface the engine actually needs: webhook signature verification and
// price lookups. PaddleProvider wraps the official Paddle SDK; HMACProvider
// serves providers with a plain shared-secret HMAC scheme and doubles as the
// test implementation.
package billing
