// Package domain contains the core entities of the task tracker: users,
// tasks with their checklist-driven progress, and notifications with their
// read acknowledgments.
//
// Domain types validate themselves and carry the rules that must hold no
// matter how they are stored or delivered. Validation failures wrap
// ErrValidation so callers can classify them with errors.Is.
package domain
