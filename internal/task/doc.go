// Package task runs report generation in the background. The Coordinator
// drives a single task through its collect and render phases and records
// every outcome on the task record; the Executor runs coordinator invocations
// off the caller's goroutine with an optional concurrency cap.
package task
