// Package domain contains the core entities of the report service: the Task
// record with its status machine, the structured Failure recorded when
// generation fails, and the ScheduledJob recurrence definition. It is
// independent of storage, transport and scheduling mechanics.
package domain
