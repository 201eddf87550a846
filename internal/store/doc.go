// Package store defines the persistence interfaces for users, tasks and
// notifications, plus the errors every implementation reports. Services
// depend only on these interfaces; internal/platform/postgres implements
// them.
package store
