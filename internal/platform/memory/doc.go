// Package memory provides a process-local implementation of store.TaskStore.
// Task state lives only as long as the process; nothing is written to disk.
package memory
