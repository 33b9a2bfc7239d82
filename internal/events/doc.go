// Package events provides types and interfaces for domain events.
//
// Services emit an Event after a write commits (a user registered, a
// reimbursement resolved, ...) without knowing which handlers will process
// it. Handlers such as the audit log or the metrics counter subscribe through
// InMemoryEventEmitter.
package events
