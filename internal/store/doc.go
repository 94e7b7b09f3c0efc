// Package store defines the task storage interface and the error taxonomy
// shared by the rest of the service. Implementations live under
// internal/platform so that business rules stay independent of how task
// records are held.
package store
