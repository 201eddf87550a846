// Package ratelimit provides fixed-window request limiters keyed by an
// arbitrary string (usually the client IP). Two implementations share the
// Limiter interface: an in-process map for single-instance deployments and
// a Redis counter for deployments running several API replicas.
package ratelimit
