// Package api exposes the task, notification, user and realtime endpoints.
// Handlers decode and validate requests, call the service layer and map
// service errors onto HTTP status codes and safe client messages.
package api
