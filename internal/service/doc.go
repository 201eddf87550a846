// Package service holds the application services that sit between the HTTP
// handlers and the stores: task management with the checklist progress
// engine, notification dispatch with presence-aware real-time delivery, and
// user accounts.
//
// Services validate and authorize before any store write, wrap multi-row
// writes in store.RunInTransaction, and return sentinel errors from the
// domain, store and service packages so the API layer can map them with
// errors.Is.
package service
