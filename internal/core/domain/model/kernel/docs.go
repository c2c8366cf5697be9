// Package kernel provides the value objects shared by every aggregate of the
// parcel locker domain.
//
// The package includes:
//   - UUID: identifier of orders, payments, containers and lockers
//   - PhoneNumber: recipient contact normalized to E.164 (local numbers get +976)
//   - DomainEvent and EventRecorder: facts raised by aggregates, published after commit
//
// Values are immutable and safe for concurrent use. The zero value of each type
// fails Validate.
package kernel
