// Package order provides the delivery order aggregate of the parcel locker
// service: a parcel deposited in a locker, identified by a pickup code and
// waiting for its recipient to pay and collect it.
//
// The package includes:
//   - Order: the aggregate root managing the pickup code, locker reference and lifecycle
//   - Status: a forward-only state machine (Waiting -> [Delivered] -> PickedUp | Cancelled)
//   - PickupCode: the fixed-width numeric code typed on the locker keypad
//   - Started, PickupCompleted, Cancelled, StatusChanged: domain events
//
// Key business rules:
//   - A pickup request is only valid while the order is Waiting
//   - An order reaches PickedUp through payment only once it is paid
//   - PickedUp and Cancelled are final, even for administrators
package order
